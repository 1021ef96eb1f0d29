package matchmaking

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/mathrivals/ArenaServer/internal/apperrors"
	"github.com/redis/go-redis/v9"
)

var ctx = context.Background()

// ErrCorruptEntry marks a queue entry that no longer deserializes; callers
// treat it as stale rather than propagating a parse failure.
var ErrCorruptEntry = errors.New("corrupt queue entry")

const (
	queueKeyPrefix   = "mm:queue:"
	waitingKeyPrefix = "mm:waiting:"
	entryKeyPrefix   = "mm:entry:"
	assignKeyPrefix  = "mm:assign:"
	matchKeyPrefix   = "mm:match:"

	assignTTL = 10 * time.Minute
	matchTTL  = 2 * time.Hour
)

type QueueRepository interface {
	Insert(entry *QueueEntry) error
	GetEntry(partyID string) (*QueueEntry, error)
	ClaimPair(entry *QueueEntry, tolerance int, matchID string) (*QueueEntry, error)
	Remove(partyID string) error
	Count(matchType MatchType) (int, error)
	SaveMatch(record *MatchRecord) error
	GetMatch(matchID string) (*MatchRecord, error)
	ClearAssignment(partyIDs ...string) error
	GetMatchAssignment(partyID string) (string, error)
}

// claimScript atomically picks the closest-rated opponent inside the
// tolerance window (earliest joiner wins ties), removes both entries,
// writes the match assignment for both parties and returns the opponent's
// blob. Running as a single script is what makes two concurrent claims
// against the same pair impossible, and writing the assignments here means
// the claimed opponent can never poll into a gap where its entry is gone
// but no match is visible yet.
var claimScript = redis.NewScript(`
local candidates = redis.call('ZRANGEBYSCORE', KEYS[1], ARGV[2], ARGV[3], 'WITHSCORES')
local self = ARGV[1]
local rating = tonumber(ARGV[4])
local prefix = ARGV[5]
local assignPrefix = ARGV[6]
local matchID = ARGV[7]
local assignTTL = tonumber(ARGV[8])
local best = false
local bestDiff = 0
local bestJoined = 0
for i = 1, #candidates, 2 do
	local id = candidates[i]
	if id ~= self then
		local diff = math.abs(tonumber(candidates[i + 1]) - rating)
		local joined = tonumber(redis.call('HGET', KEYS[2], id) or '0')
		if (not best) or diff < bestDiff or (diff == bestDiff and joined < bestJoined) then
			best = id
			bestDiff = diff
			bestJoined = joined
		end
	end
end
if not best then
	return false
end
local opponent = redis.call('GET', prefix .. best)
if not opponent then
	redis.call('ZREM', KEYS[1], best)
	redis.call('HDEL', KEYS[2], best)
	return false
end
redis.call('ZREM', KEYS[1], best, self)
redis.call('HDEL', KEYS[2], best, self)
redis.call('DEL', prefix .. best, prefix .. self)
redis.call('SET', assignPrefix .. best, matchID, 'EX', assignTTL)
redis.call('SET', assignPrefix .. self, matchID, 'EX', assignTTL)
return opponent
`)

// RedisQueueRepository keeps one rating-scored ZSET and one join-time hash
// per match type, plus a JSON blob per queued party. The client is injected
// so tests and multiple instances never share hidden state.
type RedisQueueRepository struct {
	db *redis.Client
}

func NewRedisQueueRepository(db *redis.Client) *RedisQueueRepository {
	return &RedisQueueRepository{db: db}
}

func queueKey(t MatchType) string   { return queueKeyPrefix + string(t) }
func waitingKey(t MatchType) string { return waitingKeyPrefix + string(t) }
func entryKey(partyID string) string {
	return entryKeyPrefix + partyID
}

func (r *RedisQueueRepository) Insert(entry *QueueEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return apperrors.NewAppError(500, "Error serializing queue entry", err)
	}

	ok, err := r.db.SetNX(ctx, entryKey(entry.PartyID), data, 0).Result()
	if err != nil {
		return apperrors.NewAppError(500, "Error saving queue entry", err)
	}
	if !ok {
		return apperrors.NewAppError(409, ErrAlreadyQueued, nil)
	}

	pipe := r.db.TxPipeline()
	pipe.ZAdd(ctx, queueKey(entry.MatchType), redis.Z{Score: float64(entry.Rating), Member: entry.PartyID})
	pipe.HSet(ctx, waitingKey(entry.MatchType), entry.PartyID, entry.JoinedAt)
	if _, err := pipe.Exec(ctx); err != nil {
		r.db.Del(ctx, entryKey(entry.PartyID))
		return apperrors.NewAppError(500, "Error indexing queue entry", err)
	}

	return nil
}

func (r *RedisQueueRepository) GetEntry(partyID string) (*QueueEntry, error) {
	val, err := r.db.Get(ctx, entryKey(partyID)).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, apperrors.NewAppError(500, "Error getting queue entry", err)
	}

	var entry QueueEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		log.Println("Corrupt queue entry for party", partyID, ":", err)
		return nil, ErrCorruptEntry
	}
	return &entry, nil
}

func (r *RedisQueueRepository) ClaimPair(entry *QueueEntry, tolerance int, matchID string) (*QueueEntry, error) {
	lower := entry.Rating - tolerance
	upper := entry.Rating + tolerance

	res, err := claimScript.Run(ctx,
		r.db,
		[]string{queueKey(entry.MatchType), waitingKey(entry.MatchType)},
		entry.PartyID, lower, upper, entry.Rating,
		entryKeyPrefix, assignKeyPrefix, matchID, int(assignTTL.Seconds()),
	).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, apperrors.NewAppError(500, "Error claiming opponent", err)
	}

	blob, ok := res.(string)
	if !ok {
		return nil, nil
	}

	var opponent QueueEntry
	if err := json.Unmarshal([]byte(blob), &opponent); err != nil {
		log.Println("Corrupt opponent entry claimed by", entry.PartyID, ":", err)
		return nil, ErrCorruptEntry
	}
	return &opponent, nil
}

// Remove is idempotent; removing an absent party is not an error. The entry
// is cleared from both match-type indexes so a corrupt blob can still be
// swept.
func (r *RedisQueueRepository) Remove(partyID string) error {
	pipe := r.db.TxPipeline()
	for _, t := range []MatchType{MatchTypeRanked, MatchTypeCasual} {
		pipe.ZRem(ctx, queueKey(t), partyID)
		pipe.HDel(ctx, waitingKey(t), partyID)
	}
	pipe.Del(ctx, entryKey(partyID))
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.NewAppError(500, "Error removing queue entry", err)
	}
	return nil
}

func (r *RedisQueueRepository) Count(matchType MatchType) (int, error) {
	n, err := r.db.ZCard(ctx, queueKey(matchType)).Result()
	if err != nil {
		return 0, apperrors.NewAppError(500, "Error counting queue", err)
	}
	return int(n), nil
}

func (r *RedisQueueRepository) SaveMatch(record *MatchRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return apperrors.NewAppError(500, "Error serializing match record", err)
	}
	if err := r.db.Set(ctx, matchKeyPrefix+record.ID, data, matchTTL).Err(); err != nil {
		return apperrors.NewAppError(500, "Error saving match record", err)
	}
	return nil
}

func (r *RedisQueueRepository) GetMatch(matchID string) (*MatchRecord, error) {
	val, err := r.db.Get(ctx, matchKeyPrefix+matchID).Result()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, apperrors.NewAppError(500, "Error getting match record", err)
	}
	var record MatchRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, apperrors.NewAppError(500, "Error unmarshalling match record", err)
	}
	return &record, nil
}

func (r *RedisQueueRepository) ClearAssignment(partyIDs ...string) error {
	keys := make([]string, 0, len(partyIDs))
	for _, id := range partyIDs {
		keys = append(keys, assignKeyPrefix+id)
	}
	if err := r.db.Del(ctx, keys...).Err(); err != nil {
		return apperrors.NewAppError(500, "Error clearing match assignment", err)
	}
	return nil
}

func (r *RedisQueueRepository) GetMatchAssignment(partyID string) (string, error) {
	val, err := r.db.Get(ctx, assignKeyPrefix+partyID).Result()
	if err == redis.Nil {
		return "", nil
	} else if err != nil {
		return "", apperrors.NewAppError(500, "Error getting match assignment", err)
	}
	return val, nil
}
