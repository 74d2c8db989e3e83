package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	GenAI     GenAIConfig
	Analytics AnalyticsConfig
	ImageKit  ImageKitConfig
	Session   SessionConfig
	Quota     QuotaConfig
	Log       LogConfig
}

type ImageKitConfig struct {
	PublicKey   string
	PrivateKey  string
	URLEndpoint string
	AudioFolder string
}

type AppConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type GenAIConfig struct {
	APIKey     string
	Model      string
	MediaModel string
	Timeout    time.Duration
}

type AnalyticsConfig struct {
	BaseURL         string
	Timeout         time.Duration
	DispatchTimeout time.Duration
}

type SessionConfig struct {
	TTL               time.Duration
	QuestionSetTTL    time.Duration
	QuestionsPerTier  int
	AutoCompleteDelay time.Duration
}

type QuotaConfig struct {
	GenerationDailyLimit int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() *Config {
	return &Config{
		App: AppConfig{
			Port: getEnv("APP_PORT", "3000"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "mockprep"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "secret"),
			ExpiryHours: getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		},
		GenAI: GenAIConfig{
			APIKey:     getEnv("GEMINI_API_KEY", ""),
			Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			MediaModel: getEnv("GEMINI_MEDIA_MODEL", "gemini-2.5-flash"),
			Timeout:    getEnvAsDuration("GEMINI_TIMEOUT", 60*time.Second),
		},
		Analytics: AnalyticsConfig{
			BaseURL:         getEnv("ANALYTICS_BASE_URL", ""),
			Timeout:         getEnvAsDuration("ANALYTICS_TIMEOUT", 10*time.Second),
			DispatchTimeout: getEnvAsDuration("ANALYTICS_DISPATCH_TIMEOUT", 15*time.Second),
		},
		ImageKit: ImageKitConfig{
			PublicKey:   getEnv("IMAGEKIT_PUBLIC_KEY", ""),
			PrivateKey:  getEnv("IMAGEKIT_PRIVATE_KEY", ""),
			URLEndpoint: getEnv("IMAGEKIT_URL_ENDPOINT", ""),
			AudioFolder: getEnv("IMAGEKIT_AUDIO_FOLDER", "/mockprep/answers"),
		},
		Session: SessionConfig{
			TTL:               getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			QuestionSetTTL:    getEnvAsDuration("QUESTION_SET_TTL", 7*24*time.Hour),
			QuestionsPerTier:  getEnvAsInt("SESSION_QUESTIONS_PER_TIER", 5),
			AutoCompleteDelay: getEnvAsDuration("SESSION_AUTO_COMPLETE_DELAY", 0),
		},
		Quota: QuotaConfig{
			GenerationDailyLimit: getEnvAsInt("GENERATION_DAILY_LIMIT", 20),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
