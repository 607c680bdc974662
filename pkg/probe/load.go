package probe

import (
	"path/filepath"
	"strings"
)

// Load reads a structure file, choosing the HCL format for ".hcl" files and
// the probe-config line format otherwise.
func Load(path string) (StructureConfig, Settings, error) {
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		return LoadHCL(path)
	}
	cfg, err := ParseProbeConfigFile(path)
	return cfg, Settings{}, err
}
