package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nulzo/translation-router/internal/config"
	"github.com/nulzo/translation-router/internal/platform/logger"
	"github.com/nulzo/translation-router/internal/platform/otel"
)

type rootOptions struct {
	configPath string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "translator",
		Short: "Translate string catalogs through a fallback chain of providers",
		Long: `translator sends keyed strings to machine translation providers in
priority order (DeepL, Google, LibreTranslate, OpenAI by default) and falls
back to the next provider when one fails. Results are cached, rate limited
and retried per provider.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default ./config.yaml, or $CONFIG_FILE)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newTranslateCmd(opts),
		newServeCmd(opts),
		newProvidersCmd(opts),
		newVersionCmd(),
	)
	return root
}

func (o *rootOptions) load() error {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	o.cfg = cfg

	lc := logger.DefaultConfig()
	lc.Level = cfg.Log.Level
	lc.Format = cfg.Log.Format
	logger.Initialize(lc)
	logger.SetLevel(cfg.Log.Level)
	return nil
}

// startTracing installs the span exporter when tracing is enabled. Spans go
// to w so stdout stays free for command output.
func (o *rootOptions) startTracing(w io.Writer) (func(), error) {
	shutdown, err := otel.InitTracer(o.cfg.Tracing, logger.Get(), w)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// skip config loading
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "translator version %s (%s)\n", version, commit)
		},
	}
}
