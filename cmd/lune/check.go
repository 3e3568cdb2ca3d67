package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCheckCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check [templates...]",
		Short: "Compile templates without writing output",
		Long:  `Parses and compiles templates, reporting errors and the dependencies each one reads.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.builder(false)
			if err != nil {
				return err
			}
			files, err := templateArgs(b, opts.root, args)
			if err != nil {
				return err
			}

			p := printer{w: cmd.OutOrStdout(), root: opts.root, silent: opts.cfg.Silent}
			failed := 0
			for _, file := range files {
				source, err := os.ReadFile(file)
				if err != nil {
					p.failed(file, err)
					failed++
					continue
				}
				result, err := b.Compile(file, source)
				if err != nil {
					p.failed(file, err)
					failed++
					continue
				}
				p.compiled(file, result.Dependencies, false)
			}
			p.summary(len(files)-failed, failed)

			if failed > 0 {
				return fmt.Errorf("%d template(s) failed to compile", failed)
			}
			return nil
		},
	}
}
