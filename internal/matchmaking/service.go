package matchmaking

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mathrivals/ArenaServer/internal/apperrors"
	"github.com/mathrivals/ArenaServer/internal/elo"
	"github.com/mathrivals/ArenaServer/internal/party"
	"github.com/sirupsen/logrus"
)

// PartyProvider hands out read-only party snapshots with member ratings
// already resolved for the requested mode.
type PartyProvider interface {
	GetPartySnapshot(partyID string, mode string) (*party.Party, error)
}

// RatingStore persists rating deltas once a match is finalized.
type RatingStore interface {
	ApplyMatchDelta(memberID string, mode, operation string, delta int) error
}

// MatchmakingService orchestrates validate -> rate -> enqueue -> pair.
// Every call is a single non-blocking step; real-time waiting is the
// caller's job through repeated CheckMatch polls.
type MatchmakingService struct {
	queue    QueueRepository
	parties  PartyProvider
	ratings  RatingStore
	backfill *BackfillGenerator
	cfg      Config
	now      func() time.Time
}

func NewMatchmakingService(queue QueueRepository, parties PartyProvider, ratings RatingStore, cfg Config) *MatchmakingService {
	return &MatchmakingService{
		queue:    queue,
		parties:  parties,
		ratings:  ratings,
		backfill: NewBackfillGenerator(cfg.AIRatingVariance),
		cfg:      cfg,
		now:      time.Now,
	}
}

// JoinQueue validates the roster and writes the party's queue entry. The
// actor id comes from the authenticated request, never from ambient state.
func (s *MatchmakingService) JoinQueue(actorID, partyID, matchTypeRaw string) JoinResult {
	matchType, appErr := ParseMatchType(matchTypeRaw)
	if appErr != nil {
		return JoinResult{Success: false, Error: appErr.Message}
	}

	snapshot, err := s.parties.GetPartySnapshot(partyID, string(matchType))
	if err != nil {
		return JoinResult{Success: false, Error: errorMessage(err)}
	}

	if appErr := ValidateRoster(actorID, snapshot, matchType); appErr != nil {
		return JoinResult{Success: false, Error: appErr.Message}
	}

	roster := snapshot.Members
	if matchType == MatchTypeCasual && len(roster) < TeamSize {
		roster = s.backfill.FillRoster(snapshot.HumanMembers())
	}

	ratings := make([]int, 0, len(roster))
	for _, m := range roster {
		ratings = append(ratings, m.Rating)
	}

	entry := QueueEntry{
		PartyID:   partyID,
		MatchType: matchType,
		Operation: snapshot.Operation,
		Rating:    elo.TeamRating(ratings),
		Members:   roster,
		JoinedAt:  s.now().Unix(),
	}

	if err := s.queue.Insert(&entry); err != nil {
		return JoinResult{Success: false, Error: errorMessage(err)}
	}

	logrus.WithFields(logrus.Fields{
		"party":     partyID,
		"matchType": matchType,
		"operation": entry.Operation,
		"rating":    entry.Rating,
	}).Info("party joined matchmaking queue")

	return JoinResult{Success: true}
}

// CheckMatch is a single poll: it reports an existing pairing, lazily
// expires a stale entry, or makes one atomic claim attempt. It never
// blocks waiting for an opponent.
func (s *MatchmakingService) CheckMatch(partyID string) QueueStatus {
	matchID, err := s.queue.GetMatchAssignment(partyID)
	if err != nil {
		return QueueStatus{InQueue: false, Error: errorMessage(err)}
	}
	if matchID != "" {
		return QueueStatus{InQueue: false, Phase: PhaseMatched, MatchID: matchID}
	}

	entry, err := s.queue.GetEntry(partyID)
	if errors.Is(err, ErrCorruptEntry) {
		// Malformed entries count as stale; sweep and report not-queued.
		if err := s.queue.Remove(partyID); err != nil {
			logrus.WithField("party", partyID).Warn("failed to sweep corrupt queue entry")
		}
		return QueueStatus{InQueue: false}
	}
	if err != nil {
		return QueueStatus{InQueue: false, Error: errorMessage(err)}
	}
	if entry == nil {
		return QueueStatus{InQueue: false}
	}

	if entry.MatchType == "" {
		// A stored entry should always carry its match type; falling back
		// to ranked preserves observed behavior but is an anomaly upstream.
		logrus.WithField("party", partyID).Warn("queue entry missing match type, falling back to ranked")
		entry.MatchType = MatchTypeRanked
	}

	elapsed := s.now().Sub(time.Unix(entry.JoinedAt, 0))
	if elapsed > s.cfg.MaxWait {
		if err := s.queue.Remove(partyID); err != nil {
			return QueueStatus{InQueue: false, Error: errorMessage(err)}
		}
		logrus.WithFields(logrus.Fields{
			"party":  partyID,
			"waited": elapsed,
		}).Info("queue entry expired")
		return QueueStatus{InQueue: false, Error: ErrQueueTimeout}
	}

	// The claim writes the assignment keys for both parties in the same
	// atomic step that removes their entries, so the match id must exist
	// before the claim runs.
	newMatchID := uuid.New().String()
	opponent, err := s.queue.ClaimPair(entry, s.cfg.tolerance(elapsed), newMatchID)
	if errors.Is(err, ErrCorruptEntry) {
		return QueueStatus{InQueue: true, Phase: PhaseSearching}
	}
	if err != nil {
		return QueueStatus{InQueue: false, Error: errorMessage(err)}
	}
	if opponent == nil {
		return QueueStatus{InQueue: true, Phase: PhaseSearching}
	}

	record := s.buildMatchRecord(newMatchID, entry, opponent)
	if err := s.queue.SaveMatch(record); err != nil {
		s.requeuePair(entry, opponent)
		return QueueStatus{InQueue: false, Error: errorMessage(err)}
	}

	logrus.WithFields(logrus.Fields{
		"match":     record.ID,
		"partyA":    entry.PartyID,
		"partyB":    opponent.PartyID,
		"matchType": record.MatchType,
	}).Info("match formed")

	return QueueStatus{InQueue: false, Phase: PhaseMatched, MatchID: record.ID}
}

// requeuePair undoes a claim whose match record could not be written: the
// assignments are cleared first, then both parties are put back in the
// queue with their original entries. If the assignments cannot be cleared
// they are left in place so both parties still see the claim instead of a
// silently dropped attempt.
func (s *MatchmakingService) requeuePair(a, b *QueueEntry) {
	if err := s.queue.ClearAssignment(a.PartyID, b.PartyID); err != nil {
		logrus.WithFields(logrus.Fields{
			"partyA": a.PartyID,
			"partyB": b.PartyID,
		}).Warn("failed to clear assignments while requeuing pair: ", err)
		return
	}
	for _, entry := range []*QueueEntry{a, b} {
		if err := s.queue.Insert(entry); err != nil {
			logrus.WithField("party", entry.PartyID).Warn("failed to requeue party after match save failure: ", err)
		}
	}
}

// LeaveQueue is the only cancellation path and is idempotent: leaving twice
// or leaving an already-expired entry succeeds.
func (s *MatchmakingService) LeaveQueue(partyID string) LeaveResult {
	if err := s.queue.Remove(partyID); err != nil {
		logrus.WithField("party", partyID).Error("failed to leave queue: ", err)
		return LeaveResult{Success: false}
	}
	return LeaveResult{Success: true}
}

// QueueCount never fails the caller; store errors degrade to zero.
func (s *MatchmakingService) QueueCount(matchTypeRaw string) int {
	matchType, appErr := ParseMatchType(matchTypeRaw)
	if appErr != nil {
		return 0
	}
	n, err := s.queue.Count(matchType)
	if err != nil {
		logrus.WithField("matchType", matchType).Error("failed to count queue: ", err)
		return 0
	}
	return n
}

// FinalizeMatch applies the deltas precomputed at pairing time once the
// match session reports a winner. AI teammates never touch the rating
// store.
func (s *MatchmakingService) FinalizeMatch(matchID, winnerPartyID string) (*MatchRecord, error) {
	record, err := s.queue.GetMatch(matchID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.NewAppError(404, ErrMatchNotFound, nil)
	}
	if record.Finalized {
		return nil, apperrors.NewAppError(409, ErrMatchFinalized, nil)
	}
	if winnerPartyID != record.SideA.PartyID && winnerPartyID != record.SideB.PartyID {
		return nil, apperrors.NewAppError(400, ErrPartyNotInMatch, nil)
	}

	// Persist the finalized flag before touching any rating: a retried
	// finalization then stops at the guard above and can never apply the
	// same delta twice.
	record.WinnerID = winnerPartyID
	record.Finalized = true
	if err := s.queue.SaveMatch(record); err != nil {
		return nil, err
	}

	for _, side := range []MatchSide{record.SideA, record.SideB} {
		won := side.PartyID == winnerPartyID
		for _, m := range side.Members {
			if m.IsAITeammate {
				continue
			}
			delta := m.LossDelta
			if won {
				delta = m.WinDelta
			}
			if err := s.ratings.ApplyMatchDelta(m.MemberID, string(record.MatchType), record.Operation, delta); err != nil {
				return nil, err
			}
		}
	}

	if err := s.queue.ClearAssignment(record.SideA.PartyID, record.SideB.PartyID); err != nil {
		logrus.WithField("match", matchID).Warn("failed to clear match assignments: ", err)
	}

	logrus.WithFields(logrus.Fields{
		"match":  matchID,
		"winner": winnerPartyID,
	}).Info("match finalized")

	return record, nil
}

func (s *MatchmakingService) buildMatchRecord(matchID string, a, b *QueueEntry) *MatchRecord {
	return &MatchRecord{
		ID:        matchID,
		MatchType: a.MatchType,
		Operation: a.Operation,
		SideA:     buildSide(a, b.Rating),
		SideB:     buildSide(b, a.Rating),
		CreatedAt: s.now().Unix(),
	}
}

// buildSide precomputes each member's delta against the opposing team
// rating for both outcomes, so finalization is a pure lookup.
func buildSide(entry *QueueEntry, opponentRating int) MatchSide {
	side := MatchSide{
		PartyID: entry.PartyID,
		Rating:  entry.Rating,
		Members: make([]MemberResult, 0, len(entry.Members)),
	}
	for _, m := range entry.Members {
		side.Members = append(side.Members, MemberResult{
			MemberID:     m.ID,
			Name:         m.Name,
			Rating:       m.Rating,
			IsAITeammate: m.IsAITeammate,
			WinDelta:     elo.Delta(m.Rating, opponentRating, true),
			LossDelta:    elo.Delta(m.Rating, opponentRating, false),
		})
	}
	return side
}

func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
