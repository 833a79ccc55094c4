package intake

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile reads a project file, choosing the decoder by extension
// (.json, .yaml/.yml, .hcl).
func LoadFile(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".hcl":
		return ParseHCL(data, path)
	default:
		return nil, fmt.Errorf("unsupported project file extension %q (use .json, .yaml or .hcl)", ext)
	}
}
