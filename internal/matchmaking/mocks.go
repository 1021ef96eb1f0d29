package matchmaking

import (
	"github.com/mathrivals/ArenaServer/internal/party"
	"github.com/stretchr/testify/mock"
)

type QueueRepositoryMock struct {
	mock.Mock
}

func (m *QueueRepositoryMock) Insert(entry *QueueEntry) error {
	args := m.Called(entry)
	return args.Error(0)
}

func (m *QueueRepositoryMock) GetEntry(partyID string) (*QueueEntry, error) {
	args := m.Called(partyID)
	var entry *QueueEntry
	if args.Get(0) != nil {
		entry = args.Get(0).(*QueueEntry)
	}
	return entry, args.Error(1)
}

func (m *QueueRepositoryMock) ClaimPair(entry *QueueEntry, tolerance int, matchID string) (*QueueEntry, error) {
	args := m.Called(entry, tolerance, matchID)
	var opponent *QueueEntry
	if args.Get(0) != nil {
		opponent = args.Get(0).(*QueueEntry)
	}
	return opponent, args.Error(1)
}

func (m *QueueRepositoryMock) Remove(partyID string) error {
	args := m.Called(partyID)
	return args.Error(0)
}

func (m *QueueRepositoryMock) Count(matchType MatchType) (int, error) {
	args := m.Called(matchType)
	return args.Int(0), args.Error(1)
}

func (m *QueueRepositoryMock) SaveMatch(record *MatchRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *QueueRepositoryMock) GetMatch(matchID string) (*MatchRecord, error) {
	args := m.Called(matchID)
	var record *MatchRecord
	if args.Get(0) != nil {
		record = args.Get(0).(*MatchRecord)
	}
	return record, args.Error(1)
}

func (m *QueueRepositoryMock) ClearAssignment(partyIDs ...string) error {
	args := m.Called(partyIDs)
	return args.Error(0)
}

func (m *QueueRepositoryMock) GetMatchAssignment(partyID string) (string, error) {
	args := m.Called(partyID)
	return args.String(0), args.Error(1)
}

type PartyProviderMock struct {
	mock.Mock
}

func (m *PartyProviderMock) GetPartySnapshot(partyID string, mode string) (*party.Party, error) {
	args := m.Called(partyID, mode)
	var snapshot *party.Party
	if args.Get(0) != nil {
		snapshot = args.Get(0).(*party.Party)
	}
	return snapshot, args.Error(1)
}

type RatingStoreMock struct {
	mock.Mock
}

func (m *RatingStoreMock) ApplyMatchDelta(memberID string, mode, operation string, delta int) error {
	args := m.Called(memberID, mode, operation, delta)
	return args.Error(0)
}
