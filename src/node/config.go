package node

import (
	"testing"
	"time"

	"github.com/mosaicnetworks/driftsim/src/common"
	"github.com/sirupsen/logrus"
)

// Config holds what a node needs to run. Values are checked by the config
// package before a node is created.
type Config struct {
	// ID is the identifier of the node, carried by its messages.
	ID string

	// TickRate is the number of ticks per second.
	TickRate int

	// Table gives the probabilities of the empty-queue actions.
	Table ProbabilityTable

	// SendTimeout bounds every outbound send. Zero leaves sends bounded only by
	// the transport.
	SendTimeout time.Duration

	// Seed seeds the random source used to choose actions and peers. Zero
	// seeds from the wall clock.
	Seed int64

	Logger *logrus.Logger
}

// NewConfig ...
func NewConfig(id string,
	tickRate int,
	table ProbabilityTable,
	sendTimeout time.Duration,
	seed int64,
	logger *logrus.Logger) *Config {

	return &Config{
		ID:          id,
		TickRate:    tickRate,
		Table:       table,
		SendTimeout: sendTimeout,
		Seed:        seed,
		Logger:      logger,
	}
}

// DefaultConfig ...
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		ID:          "machine",
		TickRate:    1,
		Table:       TableForMode(DefaultMode),
		SendTimeout: 500 * time.Millisecond,
		Logger:      logger,
	}
}

// TestConfig returns a seeded config logging into t.
func TestConfig(t testing.TB) *Config {
	config := DefaultConfig()
	config.Seed = 1
	config.SendTimeout = 100 * time.Millisecond
	config.Logger = common.NewTestLogger(t, common.TestLogLevel)
	return config
}
