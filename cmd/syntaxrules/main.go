// Package main provides the syntaxrules binary entry point.
// Syntaxrules rewrites the dependency tree of a sentence with triple
// pattern rules and prints the resulting tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/syntaxrules/config"
	"github.com/c360studio/syntaxrules/export"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "syntaxrules"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the flags shared by apply and watch.
type options struct {
	configPath      string
	logLevel        string
	safPath         string
	sentence        int
	rules           []string
	format          string
	continueOnError bool
	publish         bool
	natsURL         string
	metrics         bool
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Rule-based rewriting of dependency trees",
		Long: `Syntaxrules loads one sentence of a SAF document as triples, applies
lexicon entries and rewrite rules to it, and prints the resulting tree.

Rulesets are JSON or YAML files holding a lexicon and an ordered list of
rules. Each rule has a triple pattern condition and insert/delete templates.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(applyCmd(opts), watchCmd(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func addRunFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVar(&opts.safPath, "saf", "", "SAF document (JSON)")
	cmd.Flags().IntVar(&opts.sentence, "sentence", 1, "Sentence number to process")
	cmd.Flags().StringSliceVar(&opts.rules, "rules", nil, "Ruleset files or glob patterns (overrides config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format ("+strings.Join(export.FormatNames(), ", ")+")")
	cmd.Flags().BoolVar(&opts.continueOnError, "continue-on-error", false, "Keep applying rules after one fails")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Publish the tree on NATS")
	cmd.Flags().StringVar(&opts.natsURL, "nats-url", "", "NATS server URL (overrides config)")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Print rule metrics to stderr")
	_ = cmd.MarkFlagRequired("saf")
}

func applyCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply rulesets to a sentence and print the tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, req, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()
			return runOnce(cmd.Context(), app, req, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	addRunFlags(cmd, opts)
	return cmd
}

func watchCmd(opts *options) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-apply rulesets whenever a ruleset or the SAF file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, req, err := setup(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			if err := runOnce(ctx, app, req, opts, out, errOut); err != nil {
				app.logger.Error("Run failed", "error", err)
			}

			w, err := NewRulesWatcher(app.cfg.Rules.Paths, []string{req.SAFPath}, debounce, app.logger)
			if err != nil {
				return err
			}
			app.logger.Info("Watching rulesets", "paths", app.cfg.Rules.Paths)
			err = w.Run(ctx, func(ctx context.Context, paths []string) {
				app.logger.Info("Rulesets changed, re-applying", "paths", paths)
				if err := runOnce(ctx, app, req, opts, out, errOut); err != nil {
					app.logger.Error("Run failed", "error", err)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	addRunFlags(cmd, opts)
	cmd.Flags().DurationVar(&debounce, "debounce", DefaultDebounce, "Delay before re-applying after a change")
	return cmd
}

// setup loads the configuration, applies flag overrides and builds the app.
func setup(ctx context.Context, opts *options) (*App, Request, error) {
	bootstrap := newLogger(opts.logLevel, "info")

	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
		if err == nil {
			cfg.ResolvePaths(filepath.Dir(opts.configPath))
		}
	} else {
		cfg, err = config.NewLoader(bootstrap).Load()
	}
	if err != nil {
		return nil, Request{}, fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return nil, Request{}, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(opts.logLevel, cfg.Log.Level)
	slog.SetDefault(logger)

	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, Request{}, err
	}

	app, err := NewApp(cfg, logger)
	if err != nil {
		return nil, Request{}, err
	}
	if opts.publish {
		if err := app.ConnectNATS(ctx); err != nil {
			return nil, Request{}, err
		}
	}
	return app, Request{SAFPath: opts.safPath, Sentence: opts.sentence, Format: format}, nil
}

func applyOverrides(cfg *config.Config, opts *options) {
	if len(opts.rules) > 0 {
		cfg.Rules.Paths = opts.rules
	}
	if opts.format != "" {
		cfg.Output.Format = opts.format
	}
	if opts.continueOnError {
		cfg.Rules.ContinueOnError = true
	}
	if opts.natsURL != "" {
		cfg.NATS.URL = opts.natsURL
	}
	// Environment variable override takes precedence
	if envURL := os.Getenv("NATS_URL"); envURL != "" && opts.natsURL == "" {
		cfg.NATS.URL = envURL
	}
}

func runOnce(ctx context.Context, app *App, req Request, opts *options, out, errOut io.Writer) error {
	res, err := app.Run(ctx, req)
	if res != nil {
		for _, report := range res.Reports {
			for _, rr := range report.Failed() {
				fmt.Fprintf(errOut, "%s: %s: %v\n", report.Ruleset, rr.Name, rr.Err)
			}
		}
	}
	if opts.metrics {
		if merr := app.WriteMetrics(errOut); merr != nil {
			app.logger.Warn("Failed to write metrics", "error", merr)
		}
	}
	if err != nil {
		return err
	}
	if _, err := out.Write(res.Output); err != nil {
		return err
	}
	if n := len(res.Output); n > 0 && res.Output[n-1] != '\n' {
		_, err = fmt.Fprintln(out)
	}
	return err
}

// newLogger builds the stderr text logger. flag wins over fallback.
func newLogger(flag, fallback string) *slog.Logger {
	name := flag
	if name == "" {
		name = fallback
	}
	level := slog.LevelInfo
	switch strings.ToLower(name) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
