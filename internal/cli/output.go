package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spatial-tools/alignviz/pkg/pipeline"
)

// basePath derives the base output path: an explicit output wins (with
// any known format extension stripped), otherwise the first input file
// name without extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	for _, formats := range pipeline.ValidFormats {
		if formats[ext] {
			return strings.TrimSuffix(output, "."+ext)
		}
	}
	return output
}

// writeArtifacts writes each rendered format to base.format and prints
// the written files.
func writeArtifacts(base string, artifacts map[string][]byte, formats []string) error {
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := fmt.Sprintf("%s.%s", base, format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}
