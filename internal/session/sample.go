package session

import (
	"math/rand/v2"

	"github.com/raflytch/mockprep-server/internal/domain"
)

const QuestionsPerTier = 5

// Rand is the source of randomness used for shuffling.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Sample takes up to perTier questions from each tier, in tier order, and
// shuffles the concatenation with Fisher-Yates. Tiers with fewer questions
// contribute all of them; nothing is padded or duplicated.
func Sample(set domain.QuestionSet, perTier int, rng Rand) []domain.Question {
	if rng == nil {
		rng = globalRand{}
	}

	sampled := make([]domain.Question, 0, perTier*len(domain.Tiers))
	for _, tier := range domain.Tiers {
		qs := set[tier]
		if len(qs) > perTier {
			qs = qs[:perTier]
		}
		for _, q := range qs {
			q.DifficultyTier = tier
			sampled = append(sampled, q)
		}
	}

	Shuffle(sampled, rng)
	return sampled
}

func Shuffle(qs []domain.Question, rng Rand) {
	for i := len(qs) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		qs[i], qs[j] = qs[j], qs[i]
	}
}
