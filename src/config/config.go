package config

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/mosaicnetworks/driftsim/src/common"
	"github.com/mosaicnetworks/driftsim/src/node"
	"github.com/mosaicnetworks/driftsim/src/peers"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultBadgerFile is the default name of the folder containing the event
	// archive
	DefaultBadgerFile = "badger_db"

	// ConfigFile is the name of the optional configuration file in the data
	// directory, without extension.
	ConfigFile = "driftsim"
)

// Default configuration values.
const (
	DefaultLogLevel       = "info"
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 50051
	DefaultServiceAddr    = ""
	DefaultMinTicks       = 1
	DefaultMaxTicks       = 6
	DefaultSendProb       = -1
	DefaultBroadcastShare = -1
	DefaultSendTimeout    = 500 * time.Millisecond
	DefaultMaxPool        = 2
	DefaultDuration       = 0
	DefaultLogDir         = "."
	DefaultStore          = false
)

// Validation errors.
var (
	ErrInvalidID          = errors.New("invalid node id")
	ErrInvalidAddress     = errors.New("invalid listen address")
	ErrInvalidTickRange   = errors.New("invalid tick-rate bounds")
	ErrInvalidProbability = errors.New("invalid probability")
	ErrInvalidTimeout     = errors.New("invalid timeout")
)

// Config contains all the configuration properties of a driftsim node.
type Config struct {
	// DataDir is the top-level directory containing the configuration file and
	// peers.json
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the diagnostic output. It has no
	// effect on the event log.
	LogLevel string `mapstructure:"log"`

	// ID identifies the node in the messages it sends and names its log file.
	ID string `mapstructure:"id"`

	// Port is the port the node listens on when BindAddr is not set.
	Port int `mapstructure:"port"`

	// BindAddr is the full local address:port of the node. It takes
	// precedence over Port.
	BindAddr string `mapstructure:"listen"`

	// AdvertiseAddr is the address given to peers, when it differs from the
	// bound one.
	AdvertiseAddr string `mapstructure:"advertise"`

	// Peers is a comma separated list of peer addresses. When empty, peers are
	// read from peers.json in DataDir.
	Peers string `mapstructure:"peers"`

	// MinTicks and MaxTicks bound the tick rate, drawn uniformly at startup.
	MinTicks int `mapstructure:"min-ticks"`
	MaxTicks int `mapstructure:"max-ticks"`

	// TickRate fixes the tick rate instead of drawing it.
	TickRate int `mapstructure:"tick-rate"`

	// Tight selects the tight event mode.
	Tight bool `mapstructure:"tight"`

	// SendProb is the probability of a send on an empty-queue tick.
	// DefaultSendProb selects the default of the event mode.
	SendProb float64 `mapstructure:"send-prob"`

	// BroadcastShare is the share of sends that are broadcasts.
	// DefaultBroadcastShare selects the default of the event mode.
	BroadcastShare float64 `mapstructure:"broadcast-share"`

	// SendTimeout bounds every outbound send, dial included.
	SendTimeout time.Duration `mapstructure:"timeout"`

	// MaxPool controls how many connections are pooled per peer.
	MaxPool int `mapstructure:"max-pool"`

	// Duration stops the node after the given time. Zero runs until
	// interrupted.
	Duration time.Duration `mapstructure:"duration"`

	// Seed seeds the random source of the node. Zero seeds from the clock.
	Seed int64 `mapstructure:"seed"`

	// LogDir is where <id>_log.txt is written.
	LogDir string `mapstructure:"log-dir"`

	// Quiet keeps event lines off the console.
	Quiet bool `mapstructure:"quiet"`

	// Store activates the Badger event archive.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory of the event archive.
	DatabaseDir string `mapstructure:"db"`

	// ServiceAddr is the address:port of the HTTP stats service. The service
	// is disabled when it is empty.
	ServiceAddr string `mapstructure:"service-listen"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:        DefaultDataDir(),
		LogLevel:       DefaultLogLevel,
		Port:           DefaultPort,
		MinTicks:       DefaultMinTicks,
		MaxTicks:       DefaultMaxTicks,
		SendProb:       DefaultSendProb,
		BroadcastShare: DefaultBroadcastShare,
		SendTimeout:    DefaultSendTimeout,
		MaxPool:        DefaultMaxPool,
		Duration:       DefaultDuration,
		LogDir:         DefaultLogDir,
		Store:          DefaultStore,
		DatabaseDir:    DefaultDatabaseDir(),
		ServiceAddr:    DefaultServiceAddr,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level directory, and updates the database
// directory if it is currently set to the default value. If the database
// directory is not currently the default, it means the user has explicitely set
// it to something else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// SetLogger replaces the diagnostic logger.
func (c *Config) SetLogger(logger *logrus.Logger) {
	c.logger = logger
}

// ListenAddr returns the address the node binds to.
func (c *Config) ListenAddr() string {
	if c.BindAddr != "" {
		return c.BindAddr
	}
	return net.JoinHostPort(DefaultHost, strconv.Itoa(c.Port))
}

// Mode returns the event mode selected by Tight.
func (c *Config) Mode() node.Mode {
	if c.Tight {
		return node.TightMode
	}
	return node.DefaultMode
}

// Table returns the probability table of the node: the preset of its mode,
// with SendProb and BroadcastShare overriding the preset when set.
func (c *Config) Table() (node.ProbabilityTable, error) {
	sendProb, share := node.ModeDefaults(c.Mode())
	if c.SendProb != DefaultSendProb {
		sendProb = c.SendProb
	}
	if c.BroadcastShare != DefaultBroadcastShare {
		share = c.BroadcastShare
	}

	table, err := node.NewProbabilityTable(sendProb, share)
	if err != nil {
		return table, fmt.Errorf("%w: %v", ErrInvalidProbability, err)
	}
	return table, nil
}

// Validate checks everything that can be checked before the node starts.
func (c *Config) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidID)
	}

	if err := peers.ValidateAddr(c.ListenAddr()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	if c.TickRate < 0 {
		return fmt.Errorf("%w: tick rate %d", ErrInvalidTickRange, c.TickRate)
	}
	if c.TickRate == 0 && (c.MinTicks < 1 || c.MaxTicks < c.MinTicks) {
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidTickRange, c.MinTicks, c.MaxTicks)
	}

	// Table rejects anything outside [0, 1] other than the defaults
	if _, err := c.Table(); err != nil {
		return err
	}

	if c.SendTimeout <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTimeout, c.SendTimeout)
	}

	if c.ServiceAddr != "" {
		if err := peers.ValidateAddr(c.ServiceAddr); err != nil {
			return fmt.Errorf("%w: service: %v", ErrInvalidAddress, err)
		}
	}

	if c.Duration < 0 {
		return fmt.Errorf("%w: duration %v", ErrInvalidTimeout, c.Duration)
	}

	return nil
}

// DrawTickRate returns TickRate when it is set, a uniform draw from
// [MinTicks, MaxTicks] otherwise.
func (c *Config) DrawTickRate(rnd *rand.Rand) int {
	if c.TickRate > 0 {
		return c.TickRate
	}
	return c.MinTicks + rnd.Intn(c.MaxTicks-c.MinTicks+1)
}

// PeerSet returns the peers of the node: the Peers list when given, peers.json
// in DataDir otherwise. The node's own address is never part of it.
func (c *Config) PeerSet() (*peers.PeerSet, error) {
	var (
		peerSet *peers.PeerSet
		err     error
	)

	if c.Peers != "" {
		peerSet, err = peers.ParsePeerList(c.Peers)
	} else {
		peerSet, err = peers.NewJSONPeerSet(c.DataDir).PeerSet()
	}
	if err != nil {
		return nil, err
	}

	peerSet = peerSet.WithRemovedPeer(c.ListenAddr())
	if c.AdvertiseAddr != "" {
		peerSet = peerSet.WithRemovedPeer(c.AdvertiseAddr)
	}

	if peerSet.Len() == 0 {
		return nil, peers.ErrNoPeers
	}

	return peerSet, nil
}

// NodeConfig returns the configuration of the node engine for the given tick
// rate.
func (c *Config) NodeConfig(tickRate int) (*node.Config, error) {
	table, err := c.Table()
	if err != nil {
		return nil, err
	}

	return node.NewConfig(
		c.ID,
		tickRate,
		table,
		c.SendTimeout,
		c.Seed,
		c.Logger().Logger,
	), nil
}

// Logger returns a formatted logrus Entry, with prefix set to "driftsim".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger.WithField("prefix", "driftsim")
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level driftsim
// config based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Driftsim")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Driftsim")
		} else {
			return filepath.Join(home, ".driftsim")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
