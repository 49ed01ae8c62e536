package ports

import (
	"context"
	"errors"

	"github.com/aretw0/quire/pkg/domain"
)

// ErrProcessExited is returned by Recv when the kernel process is gone.
// The session treats it as a crash unless it initiated the teardown itself.
var ErrProcessExited = errors.New("kernel process exited")

// Handle is an opaque reference to one running kernel process. Only the
// transport that produced it knows what is inside.
type Handle any

// Reply is one message received from the kernel process.
// Exactly one of Outputs/Err is meaningful, discriminated by Err != "".
type Reply struct {
	// CorrelationID echoes the id of the execute request this reply answers.
	CorrelationID string

	// Outputs carries the execution results, in emission order.
	Outputs []domain.Output

	// Err is the kernel-reported failure, empty on success.
	Err string
}

// KernelTransport launches and talks to kernel backend processes. The wire
// mechanics (framing, encodings) are the adapter's business; the session
// only sees this contract.
//
// A transport must support one outstanding execute request per handle;
// correlating replies to requests is the session's job.
type KernelTransport interface {
	// Start launches the backend described by spec and returns a handle to
	// the running process.
	Start(ctx context.Context, spec domain.KernelSpec) (Handle, error)

	// Info asks the running process for its negotiated metadata.
	Info(ctx context.Context, h Handle) (domain.KernelInfo, domain.LanguageInfo, error)

	// SendExecute submits source for execution and returns the correlation
	// id the eventual reply will carry. It does not wait for the result.
	SendExecute(ctx context.Context, h Handle, source string) (string, error)

	// Recv blocks until the next reply arrives, the process exits
	// (ErrProcessExited), or ctx is done.
	Recv(ctx context.Context, h Handle) (Reply, error)

	// Kill terminates the process unconditionally. Safe to call on an
	// already-dead handle.
	Kill(h Handle) error
}
