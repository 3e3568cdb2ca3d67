package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/recera/lune/internal/build"
)

// manifest is the --json report of a compile run
type manifest struct {
	Version string          `json:"version"`
	Outputs []*build.Output `json:"outputs"`
	Errors  []manifestError `json:"errors,omitempty"`
}

type manifestError struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

func newCompileCommand(opts *globalOptions) *cobra.Command {
	var outDir string
	var watch bool
	var asJSON bool
	var noCache bool

	cmd := &cobra.Command{
		Use:   "compile [templates...]",
		Short: "Compile templates into render modules",
		Long: `Compiles every template under the source directory, or only the
given files, into JavaScript modules exporting the render function and
its dependencies.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("out-dir") {
				opts.cfg.OutDir = outDir
			}
			return runCompile(cmd, opts, args, watch, asJSON, noCache)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Output directory (default: next to each template)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Recompile templates as they change")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON manifest instead of status lines")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Recompile unchanged templates")

	return cmd
}

func runCompile(cmd *cobra.Command, opts *globalOptions, args []string, watch, asJSON, noCache bool) error {
	b, err := opts.builder(!noCache)
	if err != nil {
		return err
	}

	files, err := templateArgs(b, opts.root, args)
	if err != nil {
		return err
	}

	p := printer{w: cmd.OutOrStdout(), root: opts.root, silent: opts.cfg.Silent || asJSON}
	p.title(fmt.Sprintf("Compiling %d template(s)", len(files)))

	report := manifest{Version: build.Version, Outputs: []*build.Output{}}
	for _, file := range files {
		out, err := b.ProcessFile(file)
		if err != nil {
			p.failed(file, err)
			report.Errors = append(report.Errors, manifestError{Source: file, Error: err.Error()})
			continue
		}
		p.compiled(out.Source, out.Dependencies, out.Cached)
		report.Outputs = append(report.Outputs, out)
	}
	p.summary(len(report.Outputs), len(report.Errors))

	if asJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}

	if watch {
		return runWatch(cmd.Context(), b, p)
	}

	if len(report.Errors) > 0 {
		return fmt.Errorf("%d template(s) failed to compile", len(report.Errors))
	}
	return nil
}

func runWatch(ctx context.Context, b *build.Builder, p printer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := b.Watch(ctx, func(source string, out *build.Output, err error) {
		switch {
		case err != nil:
			p.failed(source, err)
		case out == nil:
			p.removed(source)
		default:
			p.compiled(source, out.Dependencies, out.Cached)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to watch templates: %w", err)
	}

	p.title("Watching for changes (Ctrl+C to stop)")
	<-w.Done()
	return nil
}
