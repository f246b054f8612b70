package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nulzo/translation-router/internal/app"
	"github.com/nulzo/translation-router/internal/catalog"
	"github.com/nulzo/translation-router/internal/cli"
	"github.com/nulzo/translation-router/internal/platform/logger"
	"github.com/nulzo/translation-router/internal/router"
	"github.com/nulzo/translation-router/internal/translate"
)

type translateOptions struct {
	target  string
	source  string
	in      string
	out     string
	timeout time.Duration
}

func newTranslateCmd(root *rootOptions) *cobra.Command {
	opts := &translateOptions{}

	cmd := &cobra.Command{
		Use:   "translate --target LANG --in FILE",
		Short: "Translate a YAML string catalog",
		Long: `Translate every string of a YAML catalog into the target language.

Nested keys are sent as dot-joined paths; numbers, booleans and lists are
left untouched. The translated catalog keeps the key order and comments of
the input and is written to --out, or stdout.`,
		Example: `  translator translate --target de --in locales/en.yaml --out locales/de.yaml
  translator translate -t pt-BR -s en -i en.yaml > pt.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runTranslate(ctx, root, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "Target language code (required)")
	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "Source language code (default from config, else auto-detect)")
	cmd.Flags().StringVarP(&opts.in, "in", "i", "", "Input YAML catalog (required)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Overall deadline for the request")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func runTranslate(ctx context.Context, root *rootOptions, opts *translateOptions, stdout, stderr io.Writer) error {
	cat, err := catalog.ParseFile(opts.in)
	if err != nil {
		return err
	}

	stopTracing, err := root.startTracing(stderr)
	if err != nil {
		return err
	}
	defer stopTracing()

	a, err := app.New(ctx, root.cfg, logger.Get())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	req := translate.NewRequest(opts.target).From(opts.source)
	for _, e := range cat.Entries() {
		req.Add(e.Path, e.Text)
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	res, err := a.Router.Translate(ctx, req)
	if err != nil {
		var failed *router.AllProvidersFailedError
		if errors.As(err, &failed) {
			printTrail(stderr, failed.Failures)
			return fmt.Errorf("%d strings not translated: %w", req.Len(), router.ErrAllProvidersFailed)
		}
		return err
	}

	for _, k := range res.Keys {
		if err := cat.Set(k, res.Translations[k]); err != nil {
			return err
		}
	}

	printTrail(stderr, res.Trail)
	fmt.Fprintf(stderr, "%s translated %d strings to %s with %s (tier %d)\n",
		cli.CheckMark(), len(res.Keys), opts.target, cli.Stylize(res.Provider, cli.Bold), res.Tier)

	if opts.out == "" {
		data, err := cat.Marshal()
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}
	return cat.WriteFile(opts.out)
}

func printTrail(w io.Writer, failures []translate.Failure) {
	for _, f := range failures {
		mark := cli.CrossMark()
		if f.Skipped {
			mark = cli.WarningSign()
		}
		fmt.Fprintf(w, "%s %s\n", mark, f.String())
	}
}
