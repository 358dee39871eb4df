package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stochfold/pkg/structure"
)

// evalCommand creates the structure evaluation command.
func (c *CLI) evalCommand() *cobra.Command {
	var flags foldFlags

	cmd := &cobra.Command{
		Use:   "eval <sequence|file.fa|-> <structure>",
		Short: "Evaluate the energy and probability of a structure",
		Example: `  stochfold eval GGGAAACCC "(((...)))"
  stochfold eval aln.fa --alignment "((((....))))"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(cmd, c.Config, args[0])
			if err != nil {
				return err
			}
			s, err := structure.Parse(args[1])
			if err != nil {
				return err
			}

			runner, err := c.newRunner(cmd.Context(), flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			ens, err := runner.Fold(cmd.Context(), opts)
			if err != nil {
				return err
			}
			w, err := ens.Weight(s)
			if err != nil {
				return err
			}
			energy, _ := ens.Energy(s)

			printKeyValue("structure", s.DotBracket())
			printKeyValue("energy", fmt.Sprintf("%.2f kcal/mol", energy))
			printKeyValue("weight", fmt.Sprintf("%.6g", w))
			printKeyValue("probability", fmt.Sprintf("%.6g", ens.Probability(w)))
			printKeyValue("free energy", fmt.Sprintf("%.2f kcal/mol", -ens.KT()*math.Log(ens.Z())))
			if w == 0 {
				printWarning("Structure is not in the ensemble")
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
