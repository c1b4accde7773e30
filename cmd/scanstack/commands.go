package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/scanstack/internal/apperr"
	"github.com/ironsheep/scanstack/internal/batch"
	"github.com/ironsheep/scanstack/internal/config"
	"github.com/ironsheep/scanstack/internal/export"
	"github.com/ironsheep/scanstack/internal/ingest"
	"github.com/ironsheep/scanstack/internal/logging"
	"github.com/ironsheep/scanstack/internal/server"
	"github.com/ironsheep/scanstack/internal/session"
)

// app carries what PersistentPreRunE resolves for the subcommands.
type app struct {
	flags config.Config
	cfg   *config.Config
	log   *zap.SugaredLogger
}

func newRootCmd() *cobra.Command {
	return (&app{}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "scanstack",
		Short: "Batch OCR for scanned images and PDF documents",
		Long: "scanstack collects images and PDF pages into an ordered list, recognizes\n" +
			"their text with tesseract and exports the result as text, PDF or DOCX.\n\n" +
			"Settings come from SCANSTACK_* environment variables, overridden by flags.",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	def := config.Default()
	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.LogLevel, "log-level", def.LogLevel, "log level: debug, info, warn or error")
	pf.StringVarP(&a.flags.Language, "language", "l", def.Language, "tesseract language, e.g. eng or eng+deu")
	pf.IntVar(&a.flags.PreviewSize, "preview-size", def.PreviewSize, "thumbnail size in pixels (100-300)")
	pf.IntVar(&a.flags.RasterDPI, "dpi", def.RasterDPI, "resolution PDF pages are rasterized at")
	pf.StringVar(&a.flags.PdftoppmPath, "pdftoppm", def.PdftoppmPath, "pdftoppm binary; empty uses embedded page images only")
	pf.StringVar(&a.flags.WorkDir, "work-dir", "", "parent directory for page images (default: system temp)")
	pf.BoolVar(&a.flags.Preprocess, "preprocess", def.Preprocess, "clean up images before recognition")

	root.AddCommand(a.serveCmd(), a.runCmd(), versionCmd())
	return root
}

// setup resolves the configuration: defaults, then environment, then any
// flag the user actually set.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	pf := cmd.Flags()

	if pf.Changed("log-level") {
		cfg.LogLevel = strings.ToLower(a.flags.LogLevel)
	}
	if pf.Changed("language") {
		cfg.Language = a.flags.Language
	}
	if pf.Changed("preview-size") {
		cfg.PreviewSize = a.flags.PreviewSize
	}
	if pf.Changed("dpi") {
		cfg.RasterDPI = a.flags.RasterDPI
	}
	if pf.Changed("pdftoppm") {
		cfg.PdftoppmPath = a.flags.PdftoppmPath
	}
	if pf.Changed("work-dir") {
		cfg.WorkDir = a.flags.WorkDir
	}
	if pf.Changed("preprocess") {
		cfg.Preprocess = a.flags.Preprocess
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logging.New(cfg.LogLevel)
	return nil
}

func (a *app) newSession() (*session.Session, error) {
	return session.New(session.Options{Config: a.cfg, Log: a.log})
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the OCR tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer a.log.Sync()

			sess, err := a.newSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			a.log.Infow("scanstack server starting", "version", Version, "commit", GitCommit)
			return server.New(sess, Version, a.log).Run()
		},
	}
}

func (a *app) runCmd() *cobra.Command {
	var (
		output string
		swaps  []string
	)

	cmd := &cobra.Command{
		Use:   "run [flags] FILE|GLOB...",
		Short: "Recognize files in order and export the text",
		Long: "run appends every file (PDF pages expand in page order), applies the\n" +
			"requested swaps, recognizes the list and writes the text to --output.\n" +
			"The output format follows its extension: .txt, .pdf or .docx.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.log.Sync()

			pairs, err := parseSwaps(swaps)
			if err != nil {
				return err
			}
			if output != "" {
				if _, err := export.FormatFromPath(output); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sess, err := a.newSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			paths, globErr := ingest.ExpandGlobs(args)
			if globErr != nil {
				a.log.Warnw("some arguments matched nothing", "error", globErr)
			}
			report := sess.Ingest(ctx, paths...)
			for _, r := range report.Rejected {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", r.Path, r.Message())
			}

			for _, p := range pairs {
				if err := sess.Reorder(p[0], p[1]); err != nil {
					return fmt.Errorf("swap %d:%d: %w", p[0], p[1], err)
				}
			}

			res, err := sess.RunBatch(ctx, func(p batch.Progress) {
				fmt.Fprintf(cmd.ErrOrStderr(), "\r%3d%% (%d/%d)", p.Percent, p.Completed, p.Total)
				if p.Done() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}
			})
			if err != nil {
				return err
			}
			if n := res.Failures(); n > 0 {
				a.log.Warnw("some items failed to recognize", "failures", n)
			}

			if output == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), res.Text())
				return err
			}
			format, err := sess.Export(output)
			if err != nil {
				return err
			}
			a.log.Infow("exported", "path", output, "format", format, "items", len(res.Entries))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination .txt, .pdf or .docx (default: text on stdout)")
	cmd.Flags().StringArrayVar(&swaps, "swap", nil, "swap two 1-based positions before recognizing, as A:B (repeatable)")
	return cmd
}

// parseSwaps reads "A:B" position pairs.
func parseSwaps(specs []string) ([][2]int, error) {
	pairs := make([][2]int, 0, len(specs))
	for _, s := range specs {
		left, right, ok := strings.Cut(s, ":")
		if !ok {
			return nil, apperr.New(apperr.KindInvalidInput, "swap %q: want A:B", s)
		}
		a, errA := strconv.Atoi(strings.TrimSpace(left))
		b, errB := strconv.Atoi(strings.TrimSpace(right))
		if errA != nil || errB != nil {
			return nil, apperr.New(apperr.KindInvalidInput, "swap %q: positions must be integers", s)
		}
		pairs = append(pairs, [2]int{a, b})
	}
	return pairs, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scanstack %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(out, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
