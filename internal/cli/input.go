package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stochfold/pkg/errors"
	pkgio "github.com/matzehuels/stochfold/pkg/io"
	"github.com/matzehuels/stochfold/pkg/pipeline"
)

// foldFlags are the input and model flags shared by all sampling commands.
type foldFlags struct {
	alignment   bool
	name        string
	temperature float64
	minLoop     int
	maxLoop     int
	circular    bool
	noCache     bool
	refresh     bool
}

func (f *foldFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVarP(&f.alignment, "alignment", "a", false, "read the input as an alignment (all FASTA records)")
	fl.StringVar(&f.name, "name", "", "run name (default: FASTA header)")
	fl.Float64VarP(&f.temperature, "temperature", "T", 0, "temperature in °C")
	fl.IntVar(&f.minLoop, "min-loop", 0, "minimum hairpin size")
	fl.IntVar(&f.maxLoop, "max-loop", 0, "maximum interior loop size")
	fl.BoolVarP(&f.circular, "circular", "c", false, "treat the molecule as circular")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable the table cache")
	fl.BoolVar(&f.refresh, "refresh", false, "recompute cached tables")
}

// options builds pipeline options for input, applying the config file and
// then any flags set explicitly.
func (f *foldFlags) options(cmd *cobra.Command, cfg *Config, input string) (pipeline.Options, error) {
	md := cfg.model()
	fl := cmd.Flags()
	if fl.Changed("temperature") {
		md.Temperature = f.temperature
	}
	if fl.Changed("min-loop") {
		md.MinLoop = f.minLoop
	}
	if fl.Changed("max-loop") {
		md.MaxLoop = f.maxLoop
	}
	if fl.Changed("circular") {
		md.Circular = f.circular
	}

	opts := pipeline.Options{Model: &md, Refresh: f.refresh}
	recs, err := readInput(input)
	if err != nil {
		return opts, err
	}
	if f.alignment {
		opts.Alignment = pkgio.Rows(recs)
	} else {
		opts.Sequence = recs[0].Seq
	}
	opts.Name = f.name
	if opts.Name == "" {
		opts.Name = recs[0].Name
	}
	return opts, nil
}

// readInput reads FASTA records from a file, from stdin ("-"), or takes
// input as a literal sequence.
func readInput(input string) ([]pkgio.Record, error) {
	switch {
	case input == "-":
		return pkgio.ReadFASTA(os.Stdin)
	case fileExists(input):
		return pkgio.ImportFASTA(input)
	case strings.ContainsAny(input, "/\\") || strings.HasSuffix(input, ".fa") || strings.HasSuffix(input, ".fasta"):
		return nil, errors.New(errors.ErrCodeFileNotFound, "no such file: %s", input)
	default:
		return []pkgio.Record{{Seq: strings.ToUpper(input)}}, nil
	}
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
