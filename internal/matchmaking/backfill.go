package matchmaking

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/mathrivals/ArenaServer/internal/elo"
	"github.com/mathrivals/ArenaServer/internal/party"
)

// DefaultAIRatingVariance is the half-width of the uniform band an AI
// teammate's rating may land in around the human average.
const DefaultAIRatingVariance = 25

// BackfillGenerator synthesizes AI teammates for under-sized casual
// parties. AI members never carry IGL or Anchor roles.
type BackfillGenerator struct {
	variance int
	rng      *rand.Rand
}

func NewBackfillGenerator(variance int) *BackfillGenerator {
	if variance < 0 {
		variance = DefaultAIRatingVariance
	}
	return &BackfillGenerator{
		variance: variance,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FillRoster pads humans out to a full team. Each AI teammate is rated
// round(humanAverage) + uniform(-variance, +variance), clamped to the
// rating bounds.
func (g *BackfillGenerator) FillRoster(humans []party.Member) []party.Member {
	roster := make([]party.Member, 0, TeamSize)
	roster = append(roster, humans...)
	if len(humans) == 0 || len(humans) >= TeamSize {
		return roster
	}

	base := humanAverageRating(humans)
	for i := len(humans); i < TeamSize; i++ {
		offset := 0
		if g.variance > 0 {
			offset = g.rng.Intn(2*g.variance+1) - g.variance
		}
		roster = append(roster, party.Member{
			ID:           "ai-" + uuid.New().String()[:8],
			Name:         fmt.Sprintf("AI Teammate %d", i-len(humans)+1),
			Level:        1,
			Rating:       elo.Clamp(base + offset),
			Ready:        true,
			IsAITeammate: true,
		})
	}
	return roster
}

func humanAverageRating(humans []party.Member) int {
	sum := 0
	for _, m := range humans {
		sum += m.Rating
	}
	return int(math.Round(float64(sum) / float64(len(humans))))
}
