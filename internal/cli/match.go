package cli

import (
	"github.com/spf13/cobra"

	"github.com/spatial-tools/alignviz/pkg/pipeline"
)

// matchCommand creates the match command for pairwise match figures.
// Line drawing is selected by the flags: --mode highlights one error
// class, --highlight-a/--highlight-b restrict lines to cell types,
// and the default draws every subsampled pair, colored by the
// correctness/reliability taxonomy when --annotate is on.
func (c *CLI) matchCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		highlightA string
		highlightB string
		seed       uint64
		opts       pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "match reference.csv query.csv",
		Short: "Render a pairwise match figure",
		Long: `Render two aligned datasets as z-layers with per-pair match lines.
The reference dataset sits at z=0, the query at z=1, connected by the
mapping's cell-ID pairs.

Examples:

  # all matches, colored by the correctness/reliability taxonomy
  alignviz match e11.csv e12.csv -m matching.json --annotate

  # only reliable-but-wrong matches
  alignviz match e11.csv e12.csv -m matching.json --annotate --mode high_false

  # only lines between highlighted cell types
  alignviz match e11.csv e12.csv -m matching.json --annotate \
      --highlight-a Neuron --highlight-b Neuron,Glia`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Kind = pipeline.KindMatch
			opts.Datasets = args
			opts.Formats = parseFormats(formatsStr)
			opts.HighlightA = parseList(highlightA)
			opts.HighlightB = parseList(highlightB)
			if cmd.Flags().Changed("seed") {
				opts.Seed = &seed
			}
			c.Config.apply(&opts)
			return c.runFigure(cmd, &opts, basePath(output, args[0]))
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Mappings, "mapping", "m", nil, "cell-ID mapping JSON (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file or base path")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf (comma-separated)")
	cmd.Flags().IntVar(&opts.Subsample, "subsample", 0, "pairs drawn (default 300)")
	cmd.Flags().BoolVar(&opts.ScaleCoords, "rescale", true, "min-max rescale coordinates to [0,1]")
	cmd.Flags().BoolVar(&opts.Annotate, "annotate", false, "color points by cell type")
	cmd.Flags().BoolVar(&opts.PlainLines, "plain", false, "draw every line in one color instead of the correctness taxonomy")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "highlight one error class: high_true, low_true, high_false, low_false")
	cmd.Flags().StringVar(&highlightA, "highlight-a", "", "reference cell types to highlight (comma-separated)")
	cmd.Flags().StringVar(&highlightB, "highlight-b", "", "query cell types to highlight (comma-separated)")
	cmd.Flags().StringVar(&opts.FlipA, "flip-a", "", "mirror reference axes: x, y or xy")
	cmd.Flags().StringVar(&opts.FlipB, "flip-b", "", "mirror query axes: x, y or xy")
	cmd.Flags().BoolVar(&opts.SwapXY, "swap-xy", false, "exchange x and y on the query dataset")
	cmd.Flags().StringVar(&opts.ExprScale, "expr-scale", "", "color points by expression with this scale (e.g. reds)")
	cmd.Flags().Float64Var(&opts.ExprClipPct, "expr-clip", 0, "percentile for expression outlier clipping")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (default 42)")
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "frame width")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "frame height")
	cmd.Flags().StringVar(&opts.Title, "title", "", "figure title")
	cmd.Flags().BoolVar(&opts.Legend, "legend", false, "draw the cell-type legend")
	_ = cmd.MarkFlagRequired("mapping")

	return cmd
}
