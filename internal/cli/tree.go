package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stochfold/pkg/errors"
	"github.com/matzehuels/stochfold/pkg/sampling"
)

// treeCommand creates the tracker export command.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		flags  sampleFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "tree <sequence|file.fa|->",
		Short: "Export the redundancy tracker of a non-redundant run",
		Long: `Draw structures without repetition and export the tree of decisions
that records which parts of the ensemble have been drawn. Each edge is
labelled with its decision and the fraction of the ensemble mass drawn
through it.`,
		Example: `  stochfold tree GGGAAACCC -n 5 > tree.dot
  stochfold tree rna.fa -n 50 -o tree.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := flags.options(cmd, c.Config, args[0])
			if err != nil {
				return err
			}
			opts.NonRedundant = true
			c.Config.apply(&opts)
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}

			if format == "" {
				format = "dot"
				if ext := strings.TrimPrefix(filepath.Ext(flags.output), "."); ext != "" {
					format = ext
				}
			}
			if format != "dot" && format != "svg" {
				return errors.New(errors.ErrCodeInvalidInput, "unsupported tree format %q (use dot or svg)", format)
			}

			runner, err := c.newRunner(ctx, flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			ens, err := runner.Fold(ctx, opts)
			if err != nil {
				return err
			}
			sess, err := sampling.NewSession(ens, opts.SamplingOptions(0)...)
			if err != nil {
				return err
			}
			n, err := sess.Stream(ctx, opts.Count, func(sampling.Draw) bool { return true })
			if err != nil {
				return err
			}
			tr := sess.Tracker()
			c.Logger.Info("built tracker", "structures", n, "nodes", tr.NodeCount(), "depth", tr.Depth())

			var data []byte
			if format == "svg" {
				if data, err = tr.RenderSVG(ctx); err != nil {
					return err
				}
			} else {
				data = []byte(tr.ToDOT())
			}

			if flags.output == "" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(flags.output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", flags.output, err)
			}
			printSuccess("Tracker with %d nodes after %d structures", tr.NodeCount(), n)
			printFile(flags.output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: dot or svg (default from --output extension)")
	_ = cmd.Flags().MarkHidden("json")
	return cmd
}
