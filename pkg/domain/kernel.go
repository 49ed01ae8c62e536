package domain

// KernelState captures the lifecycle of a kernel session.
type KernelState string

const (
	// KernelUnstarted means no process has ever been launched.
	KernelUnstarted KernelState = "unstarted"
	// KernelStarting means the backend process is being launched.
	KernelStarting KernelState = "starting"
	// KernelIdle means the process is up and no request is outstanding.
	KernelIdle KernelState = "idle"
	// KernelBusy means exactly one execute request is outstanding.
	KernelBusy KernelState = "busy"
	// KernelRestarting means the old process is being torn down and a fresh
	// one launched; the outstanding request (if any) is discarded.
	KernelRestarting KernelState = "restarting"
	// KernelDead means the process exited, crashed, or was shut down.
	// Dead is terminal for Shutdown; Restart recovers from it.
	KernelDead KernelState = "dead"
)

// KernelSpec identifies which interpreter backend to launch and how.
type KernelSpec struct {
	Name        string            `json:"name" yaml:"name" mapstructure:"name"`
	DisplayName string            `json:"display_name,omitempty" yaml:"display_name,omitempty" mapstructure:"display_name"`
	Command     string            `json:"-" yaml:"command" mapstructure:"-"`
	Args        []string          `json:"-" yaml:"args" mapstructure:"-"`
	Environment map[string]string `json:"-" yaml:"env,omitempty" mapstructure:"-"`
	Language    string            `json:"language,omitempty" yaml:"language,omitempty" mapstructure:"language"`
}

// KernelInfo is the name/version metadata reported by a running process.
type KernelInfo struct {
	Name    string `json:"name" mapstructure:"name"`
	Version string `json:"version,omitempty" mapstructure:"version"`
}

// LanguageInfo describes the language implemented by the kernel, as
// negotiated at startup and persisted into notebook metadata.
type LanguageInfo struct {
	Name    string `json:"name" mapstructure:"name"`
	Version string `json:"version,omitempty" mapstructure:"version"`
}
