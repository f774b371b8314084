package cli

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/spatial-tools/alignviz/pkg/errors"
	"github.com/spatial-tools/alignviz/pkg/pipeline"
)

// Config holds user defaults loaded from the TOML config file. Every
// field is optional; zero values defer to the pipeline defaults.
//
//	# ~/.config/alignviz/config.toml
//	width = 1400
//	height = 1000
//	formats = ["svg", "png"]
//	seed = 7
//	subsample = 500
//	threshold = 5
type Config struct {
	Width     float64  `toml:"width"`
	Height    float64  `toml:"height"`
	Formats   []string `toml:"formats"`
	Seed      uint64   `toml:"seed"`
	Subsample int      `toml:"subsample"`
	Threshold int      `toml:"threshold"`
	ExprScale string   `toml:"expr_scale"`
}

// LoadConfig reads the config file at path. A missing file (or empty
// path) yields the zero Config without error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	return cfg, nil
}

// apply copies the configured defaults onto unset pipeline options.
// Command-line flags win because they are set before apply runs.
func (c Config) apply(opts *pipeline.Options) {
	if opts.Width == 0 {
		opts.Width = c.Width
	}
	if opts.Height == 0 {
		opts.Height = c.Height
	}
	if len(opts.Formats) == 0 {
		opts.Formats = c.Formats
	}
	if opts.Seed == nil && c.Seed != 0 {
		seed := c.Seed
		opts.Seed = &seed
	}
	if opts.Subsample == 0 {
		opts.Subsample = c.Subsample
	}
	if opts.Threshold == 0 {
		opts.Threshold = c.Threshold
	}
	if opts.ExprScale == "" {
		opts.ExprScale = c.ExprScale
	}
}
