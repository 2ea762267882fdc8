package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/xtding233/loto-backend/internal/config"
	"github.com/xtding233/loto-backend/internal/engine"
)

type app struct {
	configDir string
	profile   string
	history   string
	logLevel  string
	asJSON    bool

	engine *engine.Engine
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	_ = godotenv.Load()
	a := &app{out: os.Stdout}

	root := &cobra.Command{
		Use:           "lotostat",
		Short:         "Draw statistics and candidate games from a draw history",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.out = cmd.OutOrStdout()
			return a.init()
		},
	}
	f := root.PersistentFlags()
	f.StringVar(&a.configDir, "config-dir", envOr("LOTO_CONFIG_DIR", "configs"), "directory holding profiles/")
	f.StringVar(&a.profile, "profile", envOr("LOTO_PROFILE", config.DefaultProfile), "config profile")
	f.StringVar(&a.history, "history", "", "history CSV (overrides the profile)")
	f.StringVar(&a.logLevel, "log-level", "warn", "log level")
	f.BoolVar(&a.asJSON, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newStatsCmd(a),
		newGenerateCmd(a),
		newSuggestCmd(a),
		newBatchCmd(a),
		newSampleCmd(a),
		newEvaluateCmd(a),
		newPriceCmd(a),
	)
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (a *app) init() error {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(a.logLevel); err == nil {
		logger.SetLevel(lvl)
	}
	log := logrus.NewEntry(logger)

	_, s, err := config.NewLoader(a.configDir).Resolve(a.profile)
	if err != nil {
		return err
	}
	if a.history != "" {
		s.History.Path = a.history
	}
	a.engine = engine.New(engine.Options{Settings: s, Log: log})
	if err := a.engine.ReloadHistory(); err != nil {
		log.WithError(err).Warn("continuing with empty history")
	}
	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
