package cli

import (
	"github.com/spf13/cobra"

	"github.com/spatial-tools/alignviz/pkg/pipeline"
)

// sankeyCommand creates the sankey command for cell-type flow
// diagrams. Input is either dataset pairs with a mapping (the crosstab
// is computed), or precomputed crosstab CSVs; several crosstabs chain
// into a multi-stage diagram.
func (c *CLI) sankeyCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		prefixes   string
		seed       uint64
		opts       pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "sankey [reference.csv query.csv]",
		Short: "Render a cell-type flow diagram",
		Long: `Render the cell-type composition of matched pairs as a flow diagram.
Links with a pair count at or below the threshold are dropped.

Examples:

  # from two annotated datasets and their mapping
  alignviz sankey e11.csv e12.csv -m matching.json --prefixes E11.5,E12.5

  # from precomputed crosstabs, chained over embryonic days
  alignviz sankey --crosstab d1.csv --crosstab d2.csv --chain-start 11.5`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Kind = pipeline.KindSankey
			opts.Datasets = args
			opts.Formats = parseFormats(formatsStr)
			opts.Prefixes = parseList(prefixes)
			if cmd.Flags().Changed("seed") {
				opts.Seed = &seed
			}
			// An explicit zero threshold keeps every non-empty link.
			if cmd.Flags().Changed("threshold") && opts.Threshold == 0 {
				opts.Threshold = -1
			}
			c.Config.apply(&opts)

			input := "flow"
			if len(args) > 0 {
				input = args[0]
			} else if len(opts.Crosstabs) > 0 {
				input = opts.Crosstabs[0]
			}
			return c.runFigure(cmd, &opts, basePath(output, input))
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Mappings, "mapping", "m", nil, "cell-ID mapping JSON")
	cmd.Flags().StringArrayVar(&opts.Crosstabs, "crosstab", nil, "precomputed crosstab CSV (repeatable, chains stages)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file or base path")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot (comma-separated)")
	cmd.Flags().IntVar(&opts.Threshold, "threshold", 0, "minimum pair count a link must exceed (default 10, 0 keeps every link)")
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "svg layout engine: ribbon (default) or graphviz")
	cmd.Flags().StringVar(&prefixes, "prefixes", "", "stage labels, e.g. E11.5,E12.5 (comma-separated)")
	cmd.Flags().Float64Var(&opts.ChainStart, "chain-start", 0, "first stage label for chained crosstabs")
	cmd.Flags().Float64Var(&opts.ChainStep, "chain-step", 0, "stage label increment (default 1)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for node colors (default 42)")
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "frame width")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "frame height")
	cmd.Flags().StringVar(&opts.Title, "title", "", "figure title")

	return cmd
}
