// Package questionbank holds the bundled question sets served when the
// generative model is unavailable.
package questionbank

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/raflytch/mockprep-server/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var bundled []byte

type file struct {
	Default      string       `yaml:"default"`
	Technologies []technology `yaml:"technologies"`
}

type technology struct {
	Name         string            `yaml:"name"`
	Aliases      []string          `yaml:"aliases"`
	Beginner     []domain.Question `yaml:"beginner"`
	Intermediate []domain.Question `yaml:"intermediate"`
	Expert       []domain.Question `yaml:"expert"`
}

type Bank struct {
	sets     map[string]domain.QuestionSet
	aliases  map[string]string
	fallback string
}

// Load parses the bundled question file.
func Load() (*Bank, error) {
	return Parse(bundled)
}

func Parse(data []byte) (*Bank, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}

	b := &Bank{
		sets:     make(map[string]domain.QuestionSet, len(f.Technologies)),
		aliases:  make(map[string]string),
		fallback: normalize(f.Default),
	}

	for _, t := range f.Technologies {
		name := normalize(t.Name)
		if name == "" {
			return nil, errors.New("question bank entry without name")
		}
		b.sets[name] = domain.QuestionSet{
			domain.TierBeginner:     tag(t.Beginner, domain.TierBeginner, t.Name),
			domain.TierIntermediate: tag(t.Intermediate, domain.TierIntermediate, t.Name),
			domain.TierExpert:       tag(t.Expert, domain.TierExpert, t.Name),
		}
		for _, alias := range t.Aliases {
			b.aliases[normalize(alias)] = name
		}
	}

	if _, ok := b.sets[b.fallback]; !ok {
		return nil, fmt.Errorf("default question set %q not found", f.Default)
	}

	return b, nil
}

func tag(qs []domain.Question, tier domain.Tier, tech string) []domain.Question {
	out := make([]domain.Question, len(qs))
	for i, q := range qs {
		q.DifficultyTier = tier
		q.Technology = tech
		out[i] = q
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (b *Bank) Technologies() []string {
	names := make([]string, 0, len(b.sets))
	for name := range b.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the set for technology, or the default set when the
// technology is not bundled. The returned set is a copy.
func (b *Bank) Lookup(technology string) domain.QuestionSet {
	key := normalize(technology)
	if alias, ok := b.aliases[key]; ok {
		key = alias
	}
	set, ok := b.sets[key]
	if !ok {
		set = b.sets[b.fallback]
	}

	out := make(domain.QuestionSet, len(set))
	for tier, qs := range set {
		out[tier] = append([]domain.Question(nil), qs...)
	}
	return out
}
