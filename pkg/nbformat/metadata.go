package nbformat

import (
	"fmt"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Metadata keys for the kernel blocks inside the notebook metadata map.
const (
	KeyKernelSpec   = "kernel_spec"
	KeyKernelInfo   = "kernel_info"
	KeyLanguageInfo = "language_info"
)

// KernelMeta is the typed view of the kernel blocks carried in notebook
// metadata. It uses mapstructure to decode from the opaque metadata map.
type KernelMeta struct {
	Spec     domain.KernelSpec   `mapstructure:"kernel_spec"`
	Info     domain.KernelInfo   `mapstructure:"kernel_info"`
	Language domain.LanguageInfo `mapstructure:"language_info"`
}

// DecodeKernelMeta extracts the kernel blocks from a metadata map.
// Absent blocks decode to zero values; that is not an error, notebooks
// written by other frontends may omit them.
func DecodeKernelMeta(meta map[string]any) (KernelMeta, error) {
	var out KernelMeta
	if meta == nil {
		return out, nil
	}
	if err := mapstructure.Decode(meta, &out); err != nil {
		return KernelMeta{}, fmt.Errorf("failed to decode kernel metadata: %w", err)
	}
	return out, nil
}

// ApplyKernelMeta writes the kernel blocks into the metadata map, leaving
// every other key untouched. A nil map is allocated.
func ApplyKernelMeta(meta map[string]any, km KernelMeta) map[string]any {
	if meta == nil {
		meta = map[string]any{}
	}
	meta[KeyKernelSpec] = km.Spec
	meta[KeyKernelInfo] = km.Info
	meta[KeyLanguageInfo] = km.Language
	return meta
}
