package cluster

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mosaicnetworks/driftsim/src/analysis"
	"github.com/mosaicnetworks/driftsim/src/archive"
	"github.com/mosaicnetworks/driftsim/src/common"
	"github.com/mosaicnetworks/driftsim/src/events"
	"github.com/stretchr/testify/require"
)

func testPlan(t *testing.T) *Plan {
	return &Plan{
		Runs:           2,
		Duration:       300 * time.Millisecond,
		Pause:          50 * time.Millisecond,
		MinTicks:       20,
		MaxTicks:       30,
		SendProb:       0.6,
		BroadcastShare: -1,
		Timeout:        200 * time.Millisecond,
		Seed:           7,
		Output:         t.TempDir(),
		Nodes: []NodeSpec{
			{ID: "machine1"},
			{ID: "machine2"},
			{ID: "machine3"},
		},
	}
}

func TestRunnerRun(t *testing.T) {
	plan := testPlan(t)
	runner := NewRunner(plan, common.NewTestEntry(t, common.TestLogLevel))

	reports, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)

	for i, report := range reports {
		dir := runner.RunDir(i + 1)
		require.Equal(t, filepath.Base(dir), report.Name)
		require.Empty(t, report.Missing)
		require.Len(t, report.Nodes, 3)

		for _, n := range report.Nodes {
			require.GreaterOrEqual(t, n.TickRate, 20)
			require.LessOrEqual(t, n.TickRate, 30)
			require.NotZero(t, n.FinalClock)
			require.FileExists(t, events.LogFile(dir, n.Node))
		}

		data, err := os.ReadFile(filepath.Join(dir, ReportFile))
		require.NoError(t, err)
		require.Contains(t, string(data), "machine3")
	}

	data, err := os.ReadFile(filepath.Join(plan.Output, SummaryFile))
	require.NoError(t, err)
	require.Contains(t, string(data), "Mean drift over 2 runs")
}

func TestRunnerStartsFromCleanDirectory(t *testing.T) {
	plan := testPlan(t)
	plan.Runs = 1
	runner := NewRunner(plan, common.NewTestEntry(t, common.TestLogLevel))

	stale := events.LogFile(runner.RunDir(1), "machine9")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0644))

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.NoFileExists(t, stale)
}

func TestRunnerStore(t *testing.T) {
	plan := testPlan(t)
	plan.Runs = 1
	plan.Store = true
	runner := NewRunner(plan, common.NewTestEntry(t, common.TestLogLevel))

	reports, err := runner.Run(context.Background())
	require.NoError(t, err)

	logger := common.NewTestEntry(t, common.TestLogLevel)
	contents, err := archive.Load(filepath.Join(runner.RunDir(1), "machine2_db"), logger)
	require.NoError(t, err)
	require.Equal(t, "machine2", contents.Startup.NodeID)
	require.Equal(t, reports[0].Nodes[1].TickRate, contents.Startup.TickRate)
}

func TestRunnerCancel(t *testing.T) {
	plan := testPlan(t)
	plan.Runs = 3
	plan.Duration = time.Minute

	runner := NewRunner(plan, common.NewTestEntry(t, common.TestLogLevel))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	var (
		reports []*analysis.RunReport
		err     error
	)
	go func() {
		defer close(done)
		reports, err = runner.Run(ctx)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}

	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.NoDirExists(t, runner.RunDir(2))
}

func TestRunnerPortInUse(t *testing.T) {
	plan := testPlan(t)
	plan.Runs = 1

	first := NewRunner(plan, common.NewTestEntry(t, common.TestLogLevel))
	sims, err := first.start(1, t.TempDir(), first.logger)
	require.NoError(t, err)
	defer func() {
		for _, s := range sims {
			s.Shutdown()
		}
	}()

	plan2 := testPlan(t)
	plan2.Runs = 1
	plan2.Nodes[1].Port = portOf(t, sims[0].Transport.LocalAddr())

	_, err = NewRunner(plan2, common.NewTestEntry(t, common.TestLogLevel)).Run(context.Background())
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "machine2"), err.Error())
}

func portOf(t *testing.T, addr string) int {
	t.Helper()
	_, p, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(p)
	require.NoError(t, err)
	return port
}
