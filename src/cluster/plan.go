package cluster

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mosaicnetworks/driftsim/src/config"
	"gopkg.in/yaml.v3"
)

// ErrInvalidPlan is returned for plans that cannot be run.
var ErrInvalidPlan = errors.New("invalid plan")

// NodeSpec identifies one node of the plan.
type NodeSpec struct {
	ID   string `yaml:"id"`
	Port int    `yaml:"port"`
}

// Plan describes an experiment.
type Plan struct {
	Runs     int           `yaml:"runs"`
	Duration time.Duration `yaml:"duration"`
	Pause    time.Duration `yaml:"pause"`

	MinTicks       int     `yaml:"min_ticks"`
	MaxTicks       int     `yaml:"max_ticks"`
	Tight          bool    `yaml:"tight"`
	SendProb       float64 `yaml:"send_prob"`
	BroadcastShare float64 `yaml:"broadcast_share"`

	Timeout time.Duration `yaml:"timeout"`

	// Seed makes runs reproducible. Node i of run n is seeded with
	// Seed + n*len(Nodes) + i. Zero seeds from the clock.
	Seed int64 `yaml:"seed"`

	// Store adds an event archive per node, in <run dir>/<id>_db.
	Store bool `yaml:"store"`

	Output string     `yaml:"output"`
	Nodes  []NodeSpec `yaml:"nodes"`
}

// DefaultPlan returns five runs of three nodes on ports 50051 to 50053, one
// minute each with ten seconds in between.
func DefaultPlan() *Plan {
	return &Plan{
		Runs:           5,
		Duration:       60 * time.Second,
		Pause:          10 * time.Second,
		MinTicks:       config.DefaultMinTicks,
		MaxTicks:       config.DefaultMaxTicks,
		SendProb:       config.DefaultSendProb,
		BroadcastShare: config.DefaultBroadcastShare,
		Timeout:        config.DefaultSendTimeout,
		Output:         "experiments",
		Nodes: []NodeSpec{
			{ID: "machine1", Port: 50051},
			{ID: "machine2", Port: 50052},
			{ID: "machine3", Port: 50053},
		},
	}
}

// LoadPlan reads a YAML plan. Keys missing from the file keep the values of
// DefaultPlan.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	plan := DefaultPlan()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan %s: %w", path, err)
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}

	return plan, nil
}

// Validate checks the plan itself. Node settings are checked again by each
// node when it starts.
func (p *Plan) Validate() error {
	if p.Runs < 1 {
		return fmt.Errorf("%w: runs must be at least 1, got %d", ErrInvalidPlan, p.Runs)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidPlan, p.Duration)
	}
	if p.Pause < 0 {
		return fmt.Errorf("%w: negative pause %v", ErrInvalidPlan, p.Pause)
	}
	if p.Output == "" {
		return fmt.Errorf("%w: output directory is required", ErrInvalidPlan)
	}
	if len(p.Nodes) < 2 {
		return fmt.Errorf("%w: at least 2 nodes are required, got %d", ErrInvalidPlan, len(p.Nodes))
	}

	ids := make(map[string]bool)
	ports := make(map[int]bool)
	for _, n := range p.Nodes {
		if n.ID == "" {
			return fmt.Errorf("%w: node without id", ErrInvalidPlan)
		}
		if ids[n.ID] {
			return fmt.Errorf("%w: duplicate node id %s", ErrInvalidPlan, n.ID)
		}
		ids[n.ID] = true

		if n.Port < 0 || n.Port > 65535 {
			return fmt.Errorf("%w: node %s: port %d out of range", ErrInvalidPlan, n.ID, n.Port)
		}
		if n.Port != 0 && ports[n.Port] {
			return fmt.Errorf("%w: duplicate port %d", ErrInvalidPlan, n.Port)
		}
		ports[n.Port] = true
	}

	return nil
}

// IDs returns the node ids in plan order.
func (p *Plan) IDs() []string {
	ids := make([]string, len(p.Nodes))
	for i, n := range p.Nodes {
		ids[i] = n.ID
	}
	return ids
}
