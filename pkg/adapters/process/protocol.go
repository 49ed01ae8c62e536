package process

import "github.com/aretw0/quire/pkg/domain"

// Request operations understood by a conforming kernel backend.
const (
	opKernelInfo = "kernel_info"
	opExecute    = "execute"
)

// frame is one line of the stdio protocol, both directions. Requests carry
// Op; replies carry the correlation ID plus exactly one of the result
// fields.
type frame struct {
	Op   string `json:"op,omitempty"`
	ID   string `json:"id,omitempty"`
	Code string `json:"code,omitempty"`

	KernelInfo   *domain.KernelInfo   `json:"kernel_info,omitempty"`
	LanguageInfo *domain.LanguageInfo `json:"language_info,omitempty"`
	Outputs      []domain.Output      `json:"outputs,omitempty"`
	Error        string               `json:"error,omitempty"`
}
