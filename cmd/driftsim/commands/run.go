package commands

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mosaicnetworks/driftsim/src/config"
	"github.com/mosaicnetworks/driftsim/src/driftsim"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//NewRunCmd returns the command that starts a driftsim node
func NewRunCmd() *cobra.Command {
	conf := config.NewDefaultConfig()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run node",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, conf)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNode(cmd, conf)
		},
	}

	AddRunFlags(cmd, conf)

	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runNode(cmd *cobra.Command, conf *config.Config) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := driftsim.NewDriftsim(conf)
	engine.Console = cmd.OutOrStdout()

	if err := engine.Init(); err != nil {
		conf.Logger().Error("Cannot initialize engine: ", err)
		return err
	}

	return engine.Run(ctx)
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command, conf *config.Config) {

	cmd.Flags().String("datadir", conf.DataDir, "Top-level directory for configuration and peers.json")
	cmd.Flags().String("log", conf.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("id", conf.ID, "Node identifier, also names the event log file")

	// Network
	cmd.Flags().Int("port", conf.Port, "Listen port on 127.0.0.1, ignored when --listen is set")
	cmd.Flags().StringP("listen", "l", conf.BindAddr, "Listen IP:Port for the node")
	cmd.Flags().StringP("advertise", "a", conf.AdvertiseAddr, "Advertise IP:Port for the node")
	cmd.Flags().String("peers", conf.Peers, "Comma separated peer addresses, read from peers.json when empty")
	cmd.Flags().DurationP("timeout", "t", conf.SendTimeout, "Send timeout, dial included")
	cmd.Flags().Int("max-pool", conf.MaxPool, "Connection pool size max")

	// Clock
	cmd.Flags().Int("min-ticks", conf.MinTicks, "Lowest tick rate drawn at startup")
	cmd.Flags().Int("max-ticks", conf.MaxTicks, "Highest tick rate drawn at startup")
	cmd.Flags().Int("tick-rate", conf.TickRate, "Fixed tick rate, drawn from [min-ticks, max-ticks] when 0")
	cmd.Flags().Bool("tight", conf.Tight, "Tight event mode: more sends, half of them broadcasts")
	cmd.Flags().Float64("send-prob", conf.SendProb, "Send probability of an empty-queue tick, mode default when -1")
	cmd.Flags().Float64("broadcast-share", conf.BroadcastShare, "Share of sends that are broadcasts, mode default when -1")
	cmd.Flags().Duration("duration", conf.Duration, "Stop after this long, 0 runs until interrupted")
	cmd.Flags().Int64("seed", conf.Seed, "Random seed, 0 seeds from the clock")

	// Output
	cmd.Flags().String("log-dir", conf.LogDir, "Directory of the event log file")
	cmd.Flags().Bool("quiet", conf.Quiet, "Do not echo event lines on stdout")

	// Service
	cmd.Flags().StringP("service-listen", "s", conf.ServiceAddr, "Listen IP:Port for HTTP service, disabled when empty")

	// Store
	cmd.Flags().Bool("store", conf.Store, "Archive events in badgerDB")
	cmd.Flags().String("db", conf.DatabaseDir, "Dabatabase directory")
}

func loadConfig(cmd *cobra.Command, conf *config.Config) error {

	err := bindFlagsLoadViper(cmd, conf)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	conf.SetDataDir(conf.DataDir)

	conf.Logger().Logger.Level = config.LogLevel(conf.LogLevel)

	logFields := logrus.Fields{
		"DataDir":        conf.DataDir,
		"ID":             conf.ID,
		"ListenAddr":     conf.ListenAddr(),
		"AdvertiseAddr":  conf.AdvertiseAddr,
		"Peers":          conf.Peers,
		"MinTicks":       conf.MinTicks,
		"MaxTicks":       conf.MaxTicks,
		"TickRate":       conf.TickRate,
		"Tight":          conf.Tight,
		"SendProb":       conf.SendProb,
		"BroadcastShare": conf.BroadcastShare,
		"SendTimeout":    conf.SendTimeout,
		"MaxPool":        conf.MaxPool,
		"Duration":       conf.Duration,
		"LogDir":         conf.LogDir,
		"ServiceAddr":    conf.ServiceAddr,
		"Store":          conf.Store,
		"LogLevel":       conf.LogLevel,
	}

	if conf.Store {
		logFields["DatabaseDir"] = conf.DatabaseDir
	}

	conf.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command, conf *config.Config) error {
	v := viper.New()

	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// DRIFTSIM_TICK_RATE is read when --tick-rate is not given, and so on
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// first unmarshal to read from CLI flags
	if err := v.Unmarshal(conf); err != nil {
		return err
	}

	// look for config file in [datadir]/driftsim.toml (.json, .yaml also work)
	v.SetConfigName(config.ConfigFile) // name of config file (without extension)
	v.AddConfigPath(conf.DataDir)      // search root directory

	// If a config file is found, read it in.
	if err := v.ReadInConfig(); err == nil {
		conf.Logger().Debugf("Using config file: %s", v.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		conf.Logger().Debugf("No config file found in: %s", conf.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return v.Unmarshal(conf)
}
