package kernel

import (
	"fmt"
	"os"

	"github.com/aretw0/quire/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Registry maps kernel names to launchable backend specs, loaded from a
// kernels.yaml configuration file.
type Registry map[string]domain.KernelSpec

type registryFile struct {
	Kernels []domain.KernelSpec `yaml:"kernels"`
	Default string              `yaml:"default,omitempty"`
}

// LoadRegistry reads a kernels.yaml file. A missing file yields an empty
// registry rather than an error, treating it as "no kernels configured".
func LoadRegistry(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Registry{}, nil
		}
		return nil, fmt.Errorf("failed to read kernels config: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry parses kernels.yaml content. Entries without a name or a
// command are rejected; a spec that cannot be launched is worse than none.
func ParseRegistry(data []byte) (Registry, error) {
	var cfg registryFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse kernels config: %w", err)
	}

	reg := make(Registry, len(cfg.Kernels))
	for i, spec := range cfg.Kernels {
		if spec.Name == "" {
			return nil, fmt.Errorf("kernel %d: missing name", i)
		}
		if spec.Command == "" {
			return nil, fmt.Errorf("kernel %q: missing command", spec.Name)
		}
		reg[spec.Name] = spec
	}
	if cfg.Default != "" {
		if spec, ok := reg[cfg.Default]; ok {
			reg[""] = spec
		} else {
			return nil, fmt.Errorf("default kernel %q is not defined", cfg.Default)
		}
	}
	return reg, nil
}

// Lookup resolves a kernel name to its spec. The empty name resolves to
// the configured default, if any.
func (r Registry) Lookup(name string) (domain.KernelSpec, bool) {
	spec, ok := r[name]
	return spec, ok
}
