package matchmaking

import (
	"testing"

	"github.com/mathrivals/ArenaServer/internal/elo"
	"github.com/mathrivals/ArenaServer/internal/party"
	"github.com/stretchr/testify/assert"
)

func humans(ratings ...int) []party.Member {
	members := make([]party.Member, 0, len(ratings))
	for i, r := range ratings {
		members = append(members, party.Member{
			ID:     "h" + itoa(i+1),
			Rating: r,
			Ready:  true,
		})
	}
	return members
}

func TestFillRoster_PadsToFullTeam(t *testing.T) {
	g := NewBackfillGenerator(25)
	for h := 1; h <= 4; h++ {
		roster := g.FillRoster(humans(make([]int, h)...))
		assert.Len(t, roster, TeamSize)
	}
}

func TestFillRoster_AIFlagsAlwaysPresent(t *testing.T) {
	g := NewBackfillGenerator(25)
	roster := g.FillRoster(humans(1000, 1200))
	ais := 0
	for i, m := range roster {
		if i < 2 {
			assert.False(t, m.IsAITeammate)
			continue
		}
		ais++
		assert.True(t, m.IsAITeammate)
		assert.False(t, m.IsIGL)
		assert.False(t, m.IsAnchor)
		assert.False(t, m.IsLeader)
		assert.True(t, m.Ready)
		assert.NotEmpty(t, m.ID)
		assert.NotEmpty(t, m.Name)
	}
	assert.Equal(t, 3, ais)
}

func TestFillRoster_RatingsStayInVarianceBand(t *testing.T) {
	g := NewBackfillGenerator(25)
	// 1000 and 1100 average to 1050
	for i := 0; i < 50; i++ {
		roster := g.FillRoster(humans(1000, 1100))
		for _, m := range roster[2:] {
			assert.GreaterOrEqual(t, m.Rating, 1025)
			assert.LessOrEqual(t, m.Rating, 1075)
		}
	}
}

func TestFillRoster_ZeroVarianceTracksAverageExactly(t *testing.T) {
	g := NewBackfillGenerator(0)
	roster := g.FillRoster(humans(1000, 1101))
	for _, m := range roster[2:] {
		assert.Equal(t, 1051, m.Rating)
	}
}

func TestFillRoster_RatingsClampedAtBounds(t *testing.T) {
	g := NewBackfillGenerator(25)
	roster := g.FillRoster(humans(elo.MinRating))
	for _, m := range roster[1:] {
		assert.GreaterOrEqual(t, m.Rating, elo.MinRating)
	}
}

func TestFillRoster_TeamRatingAveragesAllFiveMembers(t *testing.T) {
	g := NewBackfillGenerator(0)
	roster := g.FillRoster(humans(1000, 1500))
	ratings := make([]int, 0, len(roster))
	for _, m := range roster {
		ratings = append(ratings, m.Rating)
	}
	assert.Len(t, roster, TeamSize)
	assert.Equal(t, 1250, elo.TeamRating(ratings))

	// once an AI rating drifts off the human average, the 5-member mean
	// must follow it instead of the human-only mean
	roster[4].Rating = 1500
	ratings[4] = 1500
	assert.Equal(t, 1300, elo.TeamRating(ratings))
	assert.NotEqual(t, 1250, elo.TeamRating(ratings))
}

func TestFillRoster_FullPartyUntouched(t *testing.T) {
	g := NewBackfillGenerator(25)
	roster := g.FillRoster(humans(1000, 1000, 1000, 1000, 1000))
	assert.Len(t, roster, TeamSize)
	for _, m := range roster {
		assert.False(t, m.IsAITeammate)
	}
}
