package cluster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mosaicnetworks/driftsim/src/analysis"
	"github.com/mosaicnetworks/driftsim/src/config"
	"github.com/mosaicnetworks/driftsim/src/driftsim"
	"github.com/mosaicnetworks/driftsim/src/net"
	"github.com/sirupsen/logrus"
)

const (
	// RunDirPrefix names the directory of run n: <output>/experiment_run_<n>.
	RunDirPrefix = "experiment_run_"

	// ReportFile is written in every run directory.
	ReportFile = "report.txt"

	// SummaryFile is written in the output directory after the last run.
	SummaryFile = "summary.txt"

	defaultMaxPool = 2
)

// Runner executes a Plan.
type Runner struct {
	plan   *Plan
	logger *logrus.Entry
}

// NewRunner ...
func NewRunner(plan *Plan, logger *logrus.Entry) *Runner {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.InfoLevel
		logger = logrus.NewEntry(log)
	}

	return &Runner{
		plan:   plan,
		logger: logger.WithField("prefix", "cluster"),
	}
}

// RunDir returns the directory of run n.
func (r *Runner) RunDir(n int) string {
	return filepath.Join(r.plan.Output, RunDirPrefix+strconv.Itoa(n))
}

// Run executes every run of the plan and returns their reports. Cancelling ctx
// stops the current run early; its logs are still analysed, and no further
// run is started.
func (r *Runner) Run(ctx context.Context) ([]*analysis.RunReport, error) {
	if err := r.plan.Validate(); err != nil {
		return nil, err
	}

	reports := []*analysis.RunReport{}

	for n := 1; n <= r.plan.Runs; n++ {
		report, err := r.runOnce(ctx, n)
		if err != nil {
			return reports, fmt.Errorf("run %d: %w", n, err)
		}
		reports = append(reports, report)

		if ctx.Err() != nil || n == r.plan.Runs {
			break
		}

		r.logger.WithField("pause", r.plan.Pause).Info("Pausing before next run")
		select {
		case <-time.After(r.plan.Pause):
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}

	if err := writeReportFile(filepath.Join(r.plan.Output, SummaryFile), reports); err != nil {
		return reports, err
	}

	return reports, nil
}

func (r *Runner) runOnce(ctx context.Context, n int) (*analysis.RunReport, error) {
	dir := r.RunDir(n)

	// Log sinks append, so stale logs of an earlier experiment would be mixed
	// into this run.
	if err := os.RemoveAll(dir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	logger := r.logger.WithFields(logrus.Fields{
		"run":    n,
		"run_id": uuid.New().String(),
	})

	sims, err := r.start(n, dir, logger)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"dir":      dir,
		"nodes":    len(sims),
		"duration": r.plan.Duration,
	}).Info("Run started")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, s := range sims {
		wg.Add(1)
		go func(s *driftsim.Driftsim) {
			defer wg.Done()
			if err := s.Run(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", s.Config.ID, err))
				mu.Unlock()
			}
		}(s)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	report, err := analysis.AnalyzeRun(dir, r.plan.IDs())
	if err != nil {
		return nil, err
	}

	if err := writeReportFile(filepath.Join(dir, ReportFile), []*analysis.RunReport{report}); err != nil {
		return nil, err
	}

	logger.WithField("drift", report.Drift).Info("Run finished")

	return report, nil
}

// start binds every node, then initialises them with the bound addresses of
// the others as peers.
func (r *Runner) start(n int, dir string, logger *logrus.Entry) ([]*driftsim.Driftsim, error) {
	transports := []*net.NetworkTransport{}
	closeAll := func() {
		for _, t := range transports {
			t.Close()
		}
	}

	for _, ns := range r.plan.Nodes {
		bind := fmt.Sprintf("%s:%d", config.DefaultHost, ns.Port)
		trans, err := net.NewTCPTransport(bind, "", defaultMaxPool, r.plan.Timeout,
			logger.WithFields(logrus.Fields{"node": ns.ID, "component": "transport"}))
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("node %s: %w", ns.ID, err)
		}
		transports = append(transports, trans)
	}

	sims := []*driftsim.Driftsim{}
	for i, ns := range r.plan.Nodes {
		conf := r.nodeConfig(n, i, dir, transports)
		conf.SetLogger(logger.Logger)

		sim := driftsim.NewDriftsim(conf)
		sim.Transport = transports[i]
		if err := sim.Init(); err != nil {
			for _, s := range sims {
				s.Shutdown()
			}
			closeAll()
			return nil, fmt.Errorf("node %s: %w", ns.ID, err)
		}
		sims = append(sims, sim)
	}

	return sims, nil
}

func (r *Runner) nodeConfig(n, i int, dir string, transports []*net.NetworkTransport) *config.Config {
	p := r.plan

	others := []string{}
	for j, t := range transports {
		if j != i {
			others = append(others, t.LocalAddr())
		}
	}

	conf := config.NewDefaultConfig()
	conf.ID = p.Nodes[i].ID
	conf.BindAddr = transports[i].LocalAddr()
	conf.Peers = strings.Join(others, ",")
	conf.MinTicks = p.MinTicks
	conf.MaxTicks = p.MaxTicks
	conf.Tight = p.Tight
	conf.SendProb = p.SendProb
	conf.BroadcastShare = p.BroadcastShare
	conf.SendTimeout = p.Timeout
	conf.Duration = p.Duration
	conf.LogDir = dir
	conf.Quiet = true
	conf.Store = p.Store
	conf.DatabaseDir = filepath.Join(dir, conf.ID+"_db")

	if p.Seed != 0 {
		conf.Seed = p.Seed + int64(n*len(p.Nodes)+i)
	}

	return conf
}

func writeReportFile(path string, reports []*analysis.RunReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := analysis.WriteReport(f, reports...); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
