package cli

import (
	"github.com/spf13/cobra"

	"github.com/spatial-tools/alignviz/pkg/pipeline"
)

// sceneCommand creates the scene command for multi-layer 3D figures.
// It stacks every dataset as a layer and draws dashed correspondence
// lines between consecutive layers.
func (c *CLI) sceneCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		seed       uint64
		opts       pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "scene dataset.csv dataset.csv... ",
		Short: "Render a multi-layer 3D alignment scene",
		Long: `Render N spatial datasets as a stacked 3D scene. Each dataset
becomes one layer; the N-1 positional mappings (--mapping, one per
consecutive layer pair) are drawn as dashed correspondence lines.

With --smooth, each line's reference endpoint snaps to the spatially
nearest of the query's top-K ranked candidates, which needs mapping
files that carry rank lists.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Kind = pipeline.KindScene
			opts.Datasets = args
			opts.Formats = parseFormats(formatsStr)
			if cmd.Flags().Changed("seed") {
				opts.Seed = &seed
			}
			c.Config.apply(&opts)
			return c.runFigure(cmd, &opts, basePath(output, args[0]))
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Mappings, "mapping", "m", nil, "positional mapping JSON, one per layer pair (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file or base path")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf (comma-separated)")
	cmd.Flags().IntVar(&opts.Subsample, "subsample", 0, "lines drawn per layer pair (default 200)")
	cmd.Flags().BoolVar(&opts.ScaleCoords, "rescale", true, "min-max rescale coordinates to [0,1]")
	cmd.Flags().BoolVar(&opts.Smooth, "smooth", false, "snap lines to the nearest top-K ranked candidate")
	cmd.Flags().IntVar(&opts.SmoothK, "smooth-k", 0, "rank cutoff for smoothing (default 10)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (default 42)")
	cmd.Flags().Float64Var(&opts.Width, "width", 0, "frame width")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "frame height")
	cmd.Flags().StringVar(&opts.Title, "title", "", "figure title")
	cmd.Flags().BoolVar(&opts.Legend, "legend", false, "draw the cell-type legend")
	_ = cmd.MarkFlagRequired("mapping")

	return cmd
}

// runFigure executes the pipeline with a spinner and writes the
// artifacts. Options are validated up front so the defaulted format
// list drives the artifact writer.
func (c *CLI) runFigure(cmd *cobra.Command, opts *pipeline.Options, base string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	opts.Logger = logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	p := newProgress(logger)
	sp := newSpinner(ctx, "building figure")
	sp.Start()

	result, err := c.newRunner().Execute(ctx, *opts)
	if err != nil {
		sp.StopWithError(err.Error())
		return err
	}
	sp.StopWithSuccess("figure built")

	if err := writeArtifacts(base, result.Artifacts, opts.Formats); err != nil {
		return err
	}
	printStats(result.Stats.CellCount, result.Stats.LineCount, result.Stats.LinkCount)
	p.done("figure written")
	return nil
}
