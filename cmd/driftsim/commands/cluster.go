package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mosaicnetworks/driftsim/src/analysis"
	"github.com/mosaicnetworks/driftsim/src/cluster"
	"github.com/mosaicnetworks/driftsim/src/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

type clusterOptions struct {
	plan   string
	output string
	runs   int
	log    string
}

//NewClusterCmd returns the command that runs an experiment plan
func NewClusterCmd() *cobra.Command {
	opts := &clusterOptions{}

	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Run an experiment: several nodes in-process, several times",
		Long: `Run an experiment: several nodes in-process, each peered with all the
others, several times in a row. Every run writes its logs and a report in
<output>/experiment_run_<n>/. Without --plan, three nodes on ports 50051 to
50053 run five times for one minute, with ten seconds in between.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCluster(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.plan, "plan", "", "YAML experiment plan")
	cmd.Flags().StringVar(&opts.output, "output", "", "Output directory, overrides the plan")
	cmd.Flags().IntVar(&opts.runs, "runs", 0, "Number of runs, overrides the plan")
	cmd.Flags().StringVar(&opts.log, "log", config.DefaultLogLevel, "debug, info, warn, error, fatal, panic")

	return cmd
}

func runCluster(cmd *cobra.Command, opts *clusterOptions) error {
	plan := cluster.DefaultPlan()
	if opts.plan != "" {
		var err error
		if plan, err = cluster.LoadPlan(opts.plan); err != nil {
			return err
		}
	}
	if opts.output != "" {
		plan.Output = opts.output
	}
	if opts.runs > 0 {
		plan.Runs = opts.runs
	}

	logger := logrus.New()
	logger.Level = config.LogLevel(opts.log)
	logger.Formatter = new(prefixed.TextFormatter)
	logger.Out = cmd.ErrOrStderr()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reports, err := cluster.NewRunner(plan, logrus.NewEntry(logger)).Run(ctx)
	if len(reports) > 0 {
		if werr := analysis.WriteReport(cmd.OutOrStdout(), reports...); err == nil {
			err = werr
		}
	}
	return err
}
