package cli

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/stochfold/pkg/io"
	"github.com/matzehuels/stochfold/pkg/pipeline"
	"github.com/matzehuels/stochfold/pkg/sampling"
)

// sampleFlags are the flags of "sample" and "nr".
type sampleFlags struct {
	foldFlags
	count     int
	seed      uint64
	output    string
	json      bool
	tolerance float64
	maxNodes  int
}

func (f *sampleFlags) register(cmd *cobra.Command) {
	f.foldFlags.register(cmd)
	fl := cmd.Flags()
	fl.IntVarP(&f.count, "count", "n", pipeline.DefaultCount, "number of structures")
	fl.Uint64Var(&f.seed, "seed", pipeline.DefaultSeed, "random seed")
	fl.StringVarP(&f.output, "output", "o", "", "write structures to a file")
	fl.BoolVar(&f.json, "json", false, "write JSON instead of dot-bracket")
}

func (f *sampleFlags) options(cmd *cobra.Command, cfg *Config, input string) (pipeline.Options, error) {
	opts, err := f.foldFlags.options(cmd, cfg, input)
	if err != nil {
		return opts, err
	}
	opts.Count = f.count
	if cmd.Flags().Changed("seed") {
		opts.Seed = &f.seed
	}
	opts.Tolerance = f.tolerance
	opts.MaxNodes = f.maxNodes
	return opts, nil
}

// sampleCommand creates the one-shot sampling command.
func (c *CLI) sampleCommand() *cobra.Command {
	var flags sampleFlags
	var prefix int

	cmd := &cobra.Command{
		Use:   "sample <sequence|file.fa|->",
		Short: "Draw independent structures from the Boltzmann ensemble",
		Long: `Draw structures independently from the Boltzmann ensemble. The same
structure may be drawn repeatedly. With --prefix K the structures cover
only the first K positions.`,
		Example: `  stochfold sample GGGGAAAACCCC -n 5
  stochfold sample rna.fa --prefix 40 --json -o prefix.json
  stochfold sample aln.fa --alignment -n 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, c.Config, args[0])
			if err != nil {
				return err
			}
			opts.Prefix = prefix
			return c.runSampling(cmd.Context(), opts, flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&prefix, "prefix", 0, "sample structures of the first K positions only")
	return cmd
}

// nrCommand creates the non-redundant sampling command.
func (c *CLI) nrCommand() *cobra.Command {
	var flags sampleFlags
	var (
		stream      bool
		interactive bool
		workers     int
	)

	cmd := &cobra.Command{
		Use:   "nr <sequence|file.fa|->",
		Short: "Draw distinct structures without repetition",
		Long: `Draw structures without repetition: each draw follows the Boltzmann
distribution restricted to the structures not yet drawn. Sampling stops
early when every structure of the ensemble has been drawn.`,
		Example: `  stochfold nr GGGGAAAACCCCAUGGGAAACCC -n 100
  stochfold nr rna.fa -n 1000 --stream | head
  stochfold nr rna.fa -n 20 --interactive
  stochfold nr rna.fa -n 10000 --workers 8 -o structures.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, c.Config, args[0])
			if err != nil {
				return err
			}
			opts.NonRedundant = true
			opts.Workers = workers
			c.Config.apply(&opts)

			switch {
			case interactive:
				return c.runBrowser(cmd.Context(), opts, flags.noCache)
			case stream:
				return c.runStream(cmd.Context(), opts, flags.noCache)
			default:
				return c.runSampling(cmd.Context(), opts, flags)
			}
		},
	}

	flags.register(cmd)
	fl := cmd.Flags()
	fl.BoolVar(&stream, "stream", false, "print structures as they are drawn")
	fl.BoolVarP(&interactive, "interactive", "i", false, "browse structures interactively")
	fl.IntVarP(&workers, "workers", "w", 0, "independent sampling workers (results are merged)")
	fl.Float64Var(&flags.tolerance, "tolerance", 0, "relative tolerance for exhausted mass")
	fl.IntVar(&flags.maxNodes, "max-nodes", 0, "redundancy tracker node budget")
	cmd.MarkFlagsMutuallyExclusive("stream", "interactive", "workers")
	return cmd
}

// runSampling executes the pipeline and writes its document.
func (c *CLI) runSampling(ctx context.Context, opts pipeline.Options, flags sampleFlags) error {
	c.Config.apply(&opts)
	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	quiet := flags.json && flags.output == ""
	var spin *Spinner
	if !quiet {
		spin = newSpinner(ctx, "Sampling...")
		spin.Start()
	}
	res, err := runner.Execute(ctx, opts)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	switch {
	case flags.output != "":
		if err := pkgio.Export(res.Document, flags.output, flags.json); err != nil {
			return err
		}
		printSuccess("Wrote %d structures", len(res.Samples))
		printFile(flags.output)
	case flags.json:
		return pkgio.WriteJSON(res.Document, os.Stdout)
	default:
		writeSampleTable(os.Stdout, res.Document)
	}
	if !quiet {
		printStats(res.Stats.Length, len(res.Samples), res.CacheInfo.FoldHit)
		printRunSummary(res)
	}
	return nil
}

func printRunSummary(res *pipeline.Result) {
	printKeyValue("free energy", fmt.Sprintf("%.2f kcal/mol", res.Document.FreeEnergy))
	if !res.Document.NonRedundant {
		return
	}
	printKeyValue("coverage", fmt.Sprintf("%.4f", res.Coverage))
	if res.Stats.Duplicates > 0 {
		printKeyValue("duplicates", fmt.Sprintf("%d dropped", res.Stats.Duplicates))
	}
	if res.Exhausted {
		printWarning("Ensemble exhausted: every structure has been drawn")
	}
}

// runStream prints structures as they are drawn, one per line.
func (c *CLI) runStream(ctx context.Context, opts pipeline.Options, noCache bool) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	kT := opts.Model.KT()
	n, exhausted, err := runner.Stream(ctx, opts, func(s sampling.Draw) bool {
		_, werr := fmt.Fprintf(os.Stdout, "%s %7.2f  %.4f\n", s.Structure, -kT*math.Log(s.Weight), s.Probability)
		// A closed pipe ends the stream.
		return werr == nil
	})
	loggerFromContext(ctx).Debug("stream finished", "emitted", n, "exhausted", exhausted)
	return err
}
