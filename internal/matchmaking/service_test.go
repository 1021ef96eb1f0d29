package matchmaking

import (
	"testing"
	"time"

	"github.com/mathrivals/ArenaServer/internal/apperrors"
	"github.com/mathrivals/ArenaServer/internal/party"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testConfig() Config {
	return Config{
		MaxWait:          180 * time.Second,
		BaseTolerance:    100,
		ToleranceStep:    100,
		ToleranceEvery:   30 * time.Second,
		MaxTolerance:     1000,
		AIRatingVariance: 0,
	}
}

func newTestService() (*MatchmakingService, *QueueRepositoryMock, *PartyProviderMock, *RatingStoreMock) {
	queueMock := &QueueRepositoryMock{}
	partyMock := &PartyProviderMock{}
	ratingMock := &RatingStoreMock{}
	svc := NewMatchmakingService(queueMock, partyMock, ratingMock, testConfig())
	return svc, queueMock, partyMock, ratingMock
}

func queuedEntry(partyID string, matchType MatchType, rating int, joinedAt time.Time) *QueueEntry {
	return &QueueEntry{
		PartyID:   partyID,
		MatchType: matchType,
		Operation: "addition",
		Rating:    rating,
		Members: []party.Member{
			{ID: "1", Rating: rating, Ready: true, IsLeader: true},
			{ID: "2", Rating: rating, Ready: true},
			{ID: "3", Rating: rating, Ready: true},
			{ID: "4", Rating: rating, Ready: true},
			{ID: "ai-1", Rating: rating, Ready: true, IsAITeammate: true},
		},
		JoinedAt: joinedAt.Unix(),
	}
}

func TestJoinQueue_MatchTypeRequired(t *testing.T) {
	svc, queueMock, partyMock, _ := newTestService()

	result := svc.JoinQueue("1", "party1", "")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Match type is required")
	partyMock.AssertNotCalled(t, "GetPartySnapshot", mock.Anything, mock.Anything)
	queueMock.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestJoinQueue_InvalidMatchType(t *testing.T) {
	svc, _, _, _ := newTestService()

	result := svc.JoinQueue("1", "party1", "blitz")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Invalid match type")
}

func TestJoinQueue_PartyNotFound(t *testing.T) {
	svc, _, partyMock, _ := newTestService()
	partyMock.On("GetPartySnapshot", "ghost", "casual").Return(nil, nil)

	result := svc.JoinQueue("1", "ghost", "casual")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Party not found")
	partyMock.AssertExpectations(t)
}

func TestJoinQueue_OnlyLeaderMayQueue(t *testing.T) {
	svc, _, partyMock, _ := newTestService()
	partyMock.On("GetPartySnapshot", "party1", "casual").Return(readyParty(3), nil)

	result := svc.JoinQueue("2", "party1", "casual")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Only the party leader")
}

func TestJoinQueue_RankedPartialPartyRejected(t *testing.T) {
	svc, _, partyMock, _ := newTestService()
	partyMock.On("GetPartySnapshot", "party1", "ranked").Return(readyParty(3), nil)

	result := svc.JoinQueue("1", "party1", "ranked")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Ranked 5v5 requires a full party of 5 players")
}

func TestJoinQueue_CasualBackfillsAndAveragesAllFive(t *testing.T) {
	svc, queueMock, partyMock, _ := newTestService()
	p := readyParty(2)
	p.Members[0].Rating = 1000
	p.Members[1].Rating = 1100
	partyMock.On("GetPartySnapshot", "party1", "casual").Return(p, nil)

	var inserted *QueueEntry
	queueMock.On("Insert", mock.AnythingOfType("*matchmaking.QueueEntry")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(0).(*QueueEntry)
		}).
		Return(nil)

	result := svc.JoinQueue("1", "party1", "casual")
	assert.True(t, result.Success)
	assert.Empty(t, result.Error)

	assert.Equal(t, MatchTypeCasual, inserted.MatchType)
	assert.Equal(t, "addition", inserted.Operation)
	assert.Len(t, inserted.Members, TeamSize)
	// zero variance: bots sit exactly on the human average of 1050
	assert.Equal(t, 1050, inserted.Rating)
	ais := 0
	for _, m := range inserted.Members {
		if m.IsAITeammate {
			ais++
		}
	}
	assert.Equal(t, 3, ais)
	queueMock.AssertExpectations(t)
}

func TestJoinQueue_RankedFullPartySucceeds(t *testing.T) {
	svc, queueMock, partyMock, _ := newTestService()
	partyMock.On("GetPartySnapshot", "party1", "ranked").Return(fullRankedParty(), nil)
	queueMock.On("Insert", mock.AnythingOfType("*matchmaking.QueueEntry")).Return(nil)

	result := svc.JoinQueue("1", "party1", "ranked")
	assert.True(t, result.Success)
	queueMock.AssertExpectations(t)
}

func TestJoinQueue_DuplicateEntryRejected(t *testing.T) {
	svc, queueMock, partyMock, _ := newTestService()
	partyMock.On("GetPartySnapshot", "party1", "casual").Return(readyParty(5), nil)
	queueMock.On("Insert", mock.AnythingOfType("*matchmaking.QueueEntry")).
		Return(apperrors.NewAppError(409, ErrAlreadyQueued, nil))

	result := svc.JoinQueue("1", "party1", "casual")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "already in the matchmaking queue")
}

func TestCheckMatch_ReportsExistingAssignment(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	queueMock.On("GetMatchAssignment", "party1").Return("match42", nil)

	status := svc.CheckMatch("party1")
	assert.False(t, status.InQueue)
	assert.Equal(t, PhaseMatched, status.Phase)
	assert.Equal(t, "match42", status.MatchID)
	queueMock.AssertNotCalled(t, "GetEntry", mock.Anything)
}

func TestCheckMatch_NotQueued(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	queueMock.On("GetMatchAssignment", "party1").Return("", nil)
	queueMock.On("GetEntry", "party1").Return(nil, nil)

	status := svc.CheckMatch("party1")
	assert.False(t, status.InQueue)
	assert.Empty(t, status.Error)
}

func TestCheckMatch_TimeoutExpiresEntry(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	now := time.Now()
	svc.now = func() time.Time { return now }

	entry := queuedEntry("party1", MatchTypeCasual, 1000, now.Add(-200*time.Second))
	queueMock.On("GetMatchAssignment", "party1").Return("", nil)
	queueMock.On("GetEntry", "party1").Return(entry, nil)
	queueMock.On("Remove", "party1").Return(nil)

	status := svc.CheckMatch("party1")
	assert.False(t, status.InQueue)
	assert.Contains(t, status.Error, "Queue timeout")
	queueMock.AssertCalled(t, "Remove", "party1")
	queueMock.AssertNotCalled(t, "ClaimPair", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckMatch_StillSearching(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	now := time.Now()
	svc.now = func() time.Time { return now }

	entry := queuedEntry("party1", MatchTypeCasual, 1000, now)
	queueMock.On("GetMatchAssignment", "party1").Return("", nil)
	queueMock.On("GetEntry", "party1").Return(entry, nil)
	queueMock.On("ClaimPair", entry, 100, mock.AnythingOfType("string")).Return(nil, nil)

	status := svc.CheckMatch("party1")
	assert.True(t, status.InQueue)
	assert.Equal(t, PhaseSearching, status.Phase)
	assert.Empty(t, status.MatchID)
}

func TestCheckMatch_ToleranceExpandsWithWait(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	now := time.Now()
	svc.now = func() time.Time { return now }

	entry := queuedEntry("party1", MatchTypeCasual, 1000, now.Add(-65*time.Second))
	queueMock.On("GetMatchAssignment", "party1").Return("", nil)
	queueMock.On("GetEntry", "party1").Return(entry, nil)
	// two 30s steps elapsed on top of the base window
	queueMock.On("ClaimPair", entry, 300, mock.AnythingOfType("string")).Return(nil, nil)

	status := svc.CheckMatch("party1")
	assert.True(t, status.InQueue)
	queueMock.AssertExpectations(t)
}

func TestCheckMatch_PairsAndCreatesMatchRecord(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	now := time.Now()
	svc.now = func() time.Time { return now }

	entry := queuedEntry("party1", MatchTypeRanked, 1000, now)
	opponent := queuedEntry("party2", MatchTypeRanked, 1040, now.Add(-30*time.Second))

	var saved *MatchRecord
	var claimedMatchID string
	queueMock.On("GetMatchAssignment", "party1").Return("", nil)
	queueMock.On("GetEntry", "party1").Return(entry, nil)
	queueMock.On("ClaimPair", entry, mock.AnythingOfType("int"), mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			claimedMatchID = args.String(2)
		}).
		Return(opponent, nil)
	queueMock.On("SaveMatch", mock.AnythingOfType("*matchmaking.MatchRecord")).
		Run(func(args mock.Arguments) {
			saved = args.Get(0).(*MatchRecord)
		}).
		Return(nil)

	status := svc.CheckMatch("party1")
	assert.False(t, status.InQueue)
	assert.Equal(t, PhaseMatched, status.Phase)
	assert.NotEmpty(t, status.MatchID)

	// the id the opponent was assigned during the claim is the id the
	// record is stored under
	assert.Equal(t, claimedMatchID, status.MatchID)
	assert.Equal(t, status.MatchID, saved.ID)
	assert.Equal(t, MatchTypeRanked, saved.MatchType)
	assert.Equal(t, "party1", saved.SideA.PartyID)
	assert.Equal(t, "party2", saved.SideB.PartyID)
	assert.False(t, saved.Finalized)
	for _, m := range saved.SideA.Members {
		// deltas are computed against the opposing team rating
		assert.Positive(t, m.WinDelta)
		assert.Negative(t, m.LossDelta)
	}
	queueMock.AssertExpectations(t)
}

func TestCheckMatch_RecordSaveFailureRequeuesBothParties(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	now := time.Now()
	svc.now = func() time.Time { return now }

	entry := queuedEntry("party1", MatchTypeRanked, 1000, now)
	opponent := queuedEntry("party2", MatchTypeRanked, 1040, now.Add(-30*time.Second))

	queueMock.On("GetMatchAssignment", "party1").Return("", nil)
	queueMock.On("GetEntry", "party1").Return(entry, nil)
	queueMock.On("ClaimPair", entry, mock.AnythingOfType("int"), mock.AnythingOfType("string")).
		Return(opponent, nil)
	queueMock.On("SaveMatch", mock.AnythingOfType("*matchmaking.MatchRecord")).
		Return(apperrors.NewAppError(500, "Error saving match record", nil))
	queueMock.On("ClearAssignment", []string{"party1", "party2"}).Return(nil)
	queueMock.On("Insert", entry).Return(nil)
	queueMock.On("Insert", opponent).Return(nil)

	status := svc.CheckMatch("party1")
	assert.False(t, status.InQueue)
	assert.Contains(t, status.Error, "Error saving match record")

	// both parties go back in the queue: the claimed opponent must not be
	// left removed with a dangling assignment
	queueMock.AssertCalled(t, "ClearAssignment", []string{"party1", "party2"})
	queueMock.AssertCalled(t, "Insert", entry)
	queueMock.AssertCalled(t, "Insert", opponent)
}

func TestCheckMatch_RecordSaveFailureKeepsAssignmentsWhenClearFails(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	now := time.Now()
	svc.now = func() time.Time { return now }

	entry := queuedEntry("party1", MatchTypeRanked, 1000, now)
	opponent := queuedEntry("party2", MatchTypeRanked, 1040, now)

	queueMock.On("GetMatchAssignment", "party1").Return("", nil)
	queueMock.On("GetEntry", "party1").Return(entry, nil)
	queueMock.On("ClaimPair", entry, mock.AnythingOfType("int"), mock.AnythingOfType("string")).
		Return(opponent, nil)
	queueMock.On("SaveMatch", mock.AnythingOfType("*matchmaking.MatchRecord")).
		Return(apperrors.NewAppError(500, "Error saving match record", nil))
	queueMock.On("ClearAssignment", []string{"party1", "party2"}).
		Return(apperrors.NewAppError(500, "Error clearing assignment", nil))

	status := svc.CheckMatch("party1")
	assert.False(t, status.InQueue)
	assert.NotEmpty(t, status.Error)

	// if the assignments cannot be cleared the entries must not be
	// reinserted, otherwise both parties would be assigned and queued at once
	queueMock.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestCheckMatch_ConcurrentClaimLoserKeepsSearching(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	now := time.Now()
	svc.now = func() time.Time { return now }

	// the competing poller already claimed the pair; this claim finds nothing
	entry := queuedEntry("party1", MatchTypeRanked, 1000, now)
	queueMock.On("GetMatchAssignment", "party1").Return("", nil)
	queueMock.On("GetEntry", "party1").Return(entry, nil)
	queueMock.On("ClaimPair", entry, mock.AnythingOfType("int"), mock.AnythingOfType("string")).Return(nil, nil)

	status := svc.CheckMatch("party1")
	assert.True(t, status.InQueue)
	assert.Equal(t, PhaseSearching, status.Phase)
}

func TestCheckMatch_CorruptEntryDegradesGracefully(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	queueMock.On("GetMatchAssignment", "party1").Return("", nil)
	queueMock.On("GetEntry", "party1").Return(nil, ErrCorruptEntry)
	queueMock.On("Remove", "party1").Return(nil)

	status := svc.CheckMatch("party1")
	assert.False(t, status.InQueue)
	assert.Empty(t, status.Error)
	queueMock.AssertCalled(t, "Remove", "party1")
}

func TestCheckMatch_StoreErrorReported(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	queueMock.On("GetMatchAssignment", "party1").Return("", nil)
	queueMock.On("GetEntry", "party1").
		Return(nil, apperrors.NewAppError(500, "Error getting queue entry", nil))

	status := svc.CheckMatch("party1")
	assert.False(t, status.InQueue)
	assert.Contains(t, status.Error, "Error getting queue entry")
}

func TestCheckMatch_MissingMatchTypeFallsBackToRanked(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	now := time.Now()
	svc.now = func() time.Time { return now }

	entry := queuedEntry("party1", "", 1000, now)
	queueMock.On("GetMatchAssignment", "party1").Return("", nil)
	queueMock.On("GetEntry", "party1").Return(entry, nil)
	queueMock.On("ClaimPair", mock.MatchedBy(func(e *QueueEntry) bool {
		return e.MatchType == MatchTypeRanked
	}), mock.AnythingOfType("int"), mock.AnythingOfType("string")).Return(nil, nil)

	status := svc.CheckMatch("party1")
	assert.True(t, status.InQueue)
	queueMock.AssertExpectations(t)
}

func TestCheckMatch_UsesStoredMatchTypeThroughout(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	now := time.Now()
	svc.now = func() time.Time { return now }

	entry := queuedEntry("party1", MatchTypeCasual, 1000, now)
	queueMock.On("GetMatchAssignment", "party1").Return("", nil)
	queueMock.On("GetEntry", "party1").Return(entry, nil)
	queueMock.On("ClaimPair", mock.MatchedBy(func(e *QueueEntry) bool {
		return e.MatchType == MatchTypeCasual
	}), mock.AnythingOfType("int"), mock.AnythingOfType("string")).Return(nil, nil)

	for i := 0; i < 3; i++ {
		status := svc.CheckMatch("party1")
		assert.True(t, status.InQueue)
	}
	queueMock.AssertExpectations(t)
}

func TestLeaveQueue_Idempotent(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	queueMock.On("Remove", "party1").Return(nil)

	assert.True(t, svc.LeaveQueue("party1").Success)
	assert.True(t, svc.LeaveQueue("party1").Success)
	queueMock.AssertNumberOfCalls(t, "Remove", 2)
}

func TestLeaveQueue_StoreError(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	queueMock.On("Remove", "party1").
		Return(apperrors.NewAppError(500, "Error removing queue entry", nil))

	assert.False(t, svc.LeaveQueue("party1").Success)
}

func TestQueueCount(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	queueMock.On("Count", MatchTypeRanked).Return(7, nil)

	assert.Equal(t, 7, svc.QueueCount("ranked"))
}

func TestQueueCount_DegradesToZero(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	queueMock.On("Count", MatchTypeCasual).
		Return(0, apperrors.NewAppError(500, "Error counting queue", nil))

	assert.Equal(t, 0, svc.QueueCount("casual"))
	assert.Equal(t, 0, svc.QueueCount("bogus"))
}

func finalizableRecord() *MatchRecord {
	return &MatchRecord{
		ID:        "match1",
		MatchType: MatchTypeCasual,
		Operation: "addition",
		SideA: MatchSide{
			PartyID: "party1",
			Rating:  1000,
			Members: []MemberResult{
				{MemberID: "1", Rating: 1000, WinDelta: 16, LossDelta: -16},
				{MemberID: "ai-1", Rating: 1000, IsAITeammate: true, WinDelta: 16, LossDelta: -16},
			},
		},
		SideB: MatchSide{
			PartyID: "party2",
			Rating:  1000,
			Members: []MemberResult{
				{MemberID: "2", Rating: 1000, WinDelta: 16, LossDelta: -16},
			},
		},
	}
}

func TestFinalizeMatch_AppliesDeltasToHumansOnly(t *testing.T) {
	svc, queueMock, _, ratingMock := newTestService()
	record := finalizableRecord()
	queueMock.On("GetMatch", "match1").Return(record, nil)
	ratingMock.On("ApplyMatchDelta", "1", "casual", "addition", 16).Return(nil)
	ratingMock.On("ApplyMatchDelta", "2", "casual", "addition", -16).Return(nil)
	queueMock.On("SaveMatch", record).Return(nil)
	queueMock.On("ClearAssignment", []string{"party1", "party2"}).Return(nil)

	finalized, err := svc.FinalizeMatch("match1", "party1")
	assert.NoError(t, err)
	assert.True(t, finalized.Finalized)
	assert.Equal(t, "party1", finalized.WinnerID)
	ratingMock.AssertExpectations(t)
	ratingMock.AssertNotCalled(t, "ApplyMatchDelta", "ai-1", mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizeMatch_PersistsOutcomeBeforeApplyingDeltas(t *testing.T) {
	svc, queueMock, _, ratingMock := newTestService()
	record := finalizableRecord()
	queueMock.On("GetMatch", "match1").Return(record, nil)
	queueMock.On("SaveMatch", record).
		Return(apperrors.NewAppError(500, "Error saving match record", nil))

	_, err := svc.FinalizeMatch("match1", "party1")
	assert.Error(t, err)
	// nothing may touch the rating store until the outcome is durable
	ratingMock.AssertNotCalled(t, "ApplyMatchDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFinalizeMatch_RetryAfterDeltaFailureAppliesEachDeltaOnce(t *testing.T) {
	svc, queueMock, _, ratingMock := newTestService()
	record := finalizableRecord()
	queueMock.On("GetMatch", "match1").Return(record, nil)
	queueMock.On("SaveMatch", record).Return(nil)
	ratingMock.On("ApplyMatchDelta", "1", "casual", "addition", 16).Return(nil)
	ratingMock.On("ApplyMatchDelta", "2", "casual", "addition", -16).
		Return(apperrors.NewAppError(500, "Error applying rating delta", nil))

	_, err := svc.FinalizeMatch("match1", "party1")
	assert.Error(t, err)

	// the outcome was persisted before the failing delta, so a retry stops
	// at the finalized guard instead of crediting member 1 a second time
	_, err = svc.FinalizeMatch("match1", "party1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already finalized")
	ratingMock.AssertNumberOfCalls(t, "ApplyMatchDelta", 2)
}

func TestFinalizeMatch_NotFound(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	queueMock.On("GetMatch", "ghost").Return(nil, nil)

	_, err := svc.FinalizeMatch("ghost", "party1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Match not found")
}

func TestFinalizeMatch_AlreadyFinalized(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	record := finalizableRecord()
	record.Finalized = true
	queueMock.On("GetMatch", "match1").Return(record, nil)

	_, err := svc.FinalizeMatch("match1", "party1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already finalized")
}

func TestFinalizeMatch_WinnerMustHavePlayed(t *testing.T) {
	svc, queueMock, _, _ := newTestService()
	queueMock.On("GetMatch", "match1").Return(finalizableRecord(), nil)

	_, err := svc.FinalizeMatch("match1", "party9")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "did not play in this match")
}
