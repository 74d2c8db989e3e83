package imagekit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/imagekit-developer/imagekit-go/v2"
	"github.com/imagekit-developer/imagekit-go/v2/option"
)

var ErrEmptyFile = errors.New("file is empty")

type Config struct {
	PublicKey   string
	PrivateKey  string
	URLEndpoint string
}

// Enabled reports whether uploads can be made with this configuration.
func (c Config) Enabled() bool {
	return c.PrivateKey != ""
}

type Client struct {
	ik imagekit.Client
}

type UploadResult struct {
	URL      string `json:"url"`
	FileID   string `json:"file_id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	FileType string `json:"file_type"`
}

func NewClient(config Config, opts ...option.RequestOption) *Client {
	opts = append([]option.RequestOption{option.WithPrivateKey(config.PrivateKey)}, opts...)
	return &Client{ik: imagekit.NewClient(opts...)}
}

// UploadAudio stores a recording under folder and returns its public URL.
func (c *Client) UploadAudio(ctx context.Context, data []byte, fileName, folder string) (string, error) {
	result, err := c.upload(ctx, data, fileName, folder)
	if err != nil {
		return "", err
	}
	return result.URL, nil
}

func (c *Client) upload(ctx context.Context, data []byte, fileName, folder string) (*UploadResult, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	uniqueFileName := fmt.Sprintf("%s_%d%s", uuid.New().String(), time.Now().Unix(), ext)

	resp, err := c.ik.Files.Upload(ctx, imagekit.FileUploadParams{
		File:     bytes.NewReader(data),
		FileName: uniqueFileName,
		Folder:   imagekit.String(folder),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file to ImageKit: %w", err)
	}

	return &UploadResult{
		URL:      resp.URL,
		FileID:   resp.FileID,
		Name:     resp.Name,
		Size:     int64(resp.Size),
		FileType: resp.FileType,
	}, nil
}
