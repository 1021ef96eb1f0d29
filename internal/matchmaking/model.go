package matchmaking

import (
	"github.com/mathrivals/ArenaServer/internal/party"
)

type MatchType string

const (
	MatchTypeRanked MatchType = "ranked"
	MatchTypeCasual MatchType = "casual"
)

// TeamSize is the full roster size for every arena match.
const TeamSize = 5

const (
	PhaseSearching = "searching"
	PhaseMatched   = "matched"
)

// Stable error messages; clients and tests match on these substrings.
const (
	ErrMatchTypeRequired = "Match type is required"
	ErrInvalidMatchType  = "Invalid match type"
	ErrPartyNotFound     = "Party not found"
	ErrNotPartyLeader    = "Only the party leader can start matchmaking"
	ErrPartyEmpty        = "Party has no members"
	ErrMembersNotReady   = "Not all party members are ready"
	ErrRankedPartySize   = "Ranked 5v5 requires a full party of 5 players"
	ErrIGLNotAssigned    = "IGL must be assigned before queuing"
	ErrIGLNotInParty     = "IGL is no longer in the party"
	ErrAnchorNotAssigned = "Anchor must be assigned before queuing"
	ErrAnchorNotInParty  = "Anchor is no longer in the party"
	ErrQueueTimeout      = "Queue timeout - no match found"
	ErrAlreadyQueued     = "Party is already in the matchmaking queue"
	ErrMatchNotFound     = "Match not found"
	ErrMatchFinalized    = "Match already finalized"
	ErrPartyNotInMatch   = "Party did not play in this match"
)

// QueueEntry is one party's claim on the queue. MatchType is written once at
// join time and is the source of truth for every later call on this attempt.
type QueueEntry struct {
	PartyID   string         `json:"partyId"`
	MatchType MatchType      `json:"matchType"`
	Operation string         `json:"operation"`
	Rating    int            `json:"rating"`
	Members   []party.Member `json:"members"`
	JoinedAt  int64          `json:"joinedAt"`
}

// MemberResult carries the rating deltas precomputed at pairing time for
// both possible outcomes. AI teammates keep deltas for symmetry but are
// never persisted.
type MemberResult struct {
	MemberID     string `json:"memberId"`
	Name         string `json:"name"`
	Rating       int    `json:"rating"`
	IsAITeammate bool   `json:"isAITeammate"`
	WinDelta     int    `json:"winDelta"`
	LossDelta    int    `json:"lossDelta"`
}

type MatchSide struct {
	PartyID string         `json:"partyId"`
	Rating  int            `json:"rating"`
	Members []MemberResult `json:"members"`
}

// MatchRecord is created the instant a pairing is claimed and finalized once
// the match session reports an outcome.
type MatchRecord struct {
	ID        string    `json:"id"`
	MatchType MatchType `json:"matchType"`
	Operation string    `json:"operation"`
	SideA     MatchSide `json:"sideA"`
	SideB     MatchSide `json:"sideB"`
	CreatedAt int64     `json:"createdAt"`
	WinnerID  string    `json:"winnerId,omitempty"`
	Finalized bool      `json:"finalized"`
}

type JoinResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type QueueStatus struct {
	InQueue bool   `json:"inQueue"`
	Phase   string `json:"phase,omitempty"`
	MatchID string `json:"matchId,omitempty"`
	Error   string `json:"error,omitempty"`
}

type LeaveResult struct {
	Success bool `json:"success"`
}
