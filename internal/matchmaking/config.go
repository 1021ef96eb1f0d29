package matchmaking

import (
	"os"
	"strconv"
	"time"
)

// Config holds the queue tunables. Defaults mirror the live arena settings;
// every value can be overridden from the environment.
type Config struct {
	// MaxWait is how long a party may sit in the queue before a status
	// check expires it.
	MaxWait time.Duration
	// BaseTolerance is the initial rating window for pairing.
	BaseTolerance int
	// ToleranceStep widens the window by this much every ToleranceEvery.
	ToleranceStep  int
	ToleranceEvery time.Duration
	// MaxTolerance caps the window no matter how long a party has waited.
	MaxTolerance int
	// AIRatingVariance is the +/- band around the human average used when
	// backfilling casual rosters.
	AIRatingVariance int
}

func DefaultConfig() Config {
	return Config{
		MaxWait:          time.Duration(getEnvInt("MM_MAX_WAIT_SECONDS", 180)) * time.Second,
		BaseTolerance:    getEnvInt("MM_BASE_TOLERANCE", 100),
		ToleranceStep:    getEnvInt("MM_TOLERANCE_STEP", 100),
		ToleranceEvery:   time.Duration(getEnvInt("MM_TOLERANCE_EVERY_SECONDS", 30)) * time.Second,
		MaxTolerance:     getEnvInt("MM_MAX_TOLERANCE", 1000),
		AIRatingVariance: getEnvInt("MM_AI_RATING_VARIANCE", DefaultAIRatingVariance),
	}
}

// tolerance expands the pairing window as a party waits longer.
func (c Config) tolerance(elapsed time.Duration) int {
	steps := 0
	if c.ToleranceEvery > 0 {
		steps = int(elapsed / c.ToleranceEvery)
	}
	t := c.BaseTolerance + steps*c.ToleranceStep
	if t > c.MaxTolerance {
		return c.MaxTolerance
	}
	return t
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
