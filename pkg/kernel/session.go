package kernel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
)

// DefaultSubmitTimeout bounds how long a submission may stay outstanding
// before the session degrades as if the process had crashed.
const DefaultSubmitTimeout = 2 * time.Minute

// Session owns the lifecycle of one external interpreter process.
// All methods are safe for concurrent use; at most one execute request is
// outstanding at any time.
type Session struct {
	transport ports.KernelTransport
	spec      domain.KernelSpec
	timeout   time.Duration
	logger    *slog.Logger

	mu         sync.Mutex
	state      domain.KernelState
	handle     ports.Handle
	info       domain.KernelInfo
	language   domain.LanguageInfo
	execCount  int
	pending    *pendingRequest
	epoch      int // process generation; replies from older generations are stale
	cancelRecv context.CancelFunc
}

type pendingRequest struct {
	id   string
	done chan submitResult // buffered, the reader never blocks on delivery
}

type submitResult struct {
	outputs []domain.Output
	count   int
	err     error
}

// Option configures a Session.
type Option func(*Session)

// WithTimeout sets the submit timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.timeout = d
	}
}

// WithLogger configures a logger for session lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates an unstarted session for the given backend spec.
func NewSession(transport ports.KernelTransport, spec domain.KernelSpec, opts ...Option) *Session {
	s := &Session{
		transport: transport,
		spec:      spec,
		timeout:   DefaultSubmitTimeout,
		logger:    logging.NewNop(),
		state:     domain.KernelUnstarted,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() domain.KernelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Spec returns the backend spec the session was created with.
func (s *Session) Spec() domain.KernelSpec {
	return s.spec
}

// Info returns the metadata reported by the running process. Zero until
// the first successful start.
func (s *Session) Info() domain.KernelInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// LanguageInfo returns the language block negotiated at startup.
func (s *Session) LanguageInfo() domain.LanguageInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// ExecutionCount returns the counter value of the last successful submission.
func (s *Session) ExecutionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.execCount
}

// Start launches the backend process. It is idempotent: a session that is
// already starting, idle, or busy is left alone. From Unstarted or Dead it
// performs a fresh launch and fails with domain.ErrKernelLaunch when the
// configured backend is unavailable, leaving the session Dead.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case domain.KernelStarting, domain.KernelIdle, domain.KernelBusy, domain.KernelRestarting:
		return nil
	}
	return s.startLocked(ctx)
}

// startLocked brings up a fresh process. Caller holds s.mu.
func (s *Session) startLocked(ctx context.Context) error {
	s.state = domain.KernelStarting
	s.execCount = 0

	handle, err := s.transport.Start(ctx, s.spec)
	if err != nil {
		s.state = domain.KernelDead
		return fmt.Errorf("%w: %v", domain.ErrKernelLaunch, err)
	}

	info, language, err := s.transport.Info(ctx, handle)
	if err != nil {
		_ = s.transport.Kill(handle)
		s.state = domain.KernelDead
		return fmt.Errorf("%w: kernel info: %v", domain.ErrKernelLaunch, err)
	}

	s.handle = handle
	s.info = info
	s.language = language
	s.epoch++
	s.state = domain.KernelIdle

	recvCtx, cancel := context.WithCancel(context.Background())
	s.cancelRecv = cancel
	go s.receiveLoop(recvCtx, handle, s.epoch)

	s.logger.Info("kernel started", "kernel", s.spec.Name, "info", info.Name)
	return nil
}

// receiveLoop reads replies for one process generation and dispatches them
// into the pending request. It exits when the process goes away.
func (s *Session) receiveLoop(ctx context.Context, handle ports.Handle, epoch int) {
	for {
		reply, err := s.transport.Recv(ctx, handle)
		if err != nil {
			s.onProcessGone(epoch, err)
			return
		}
		s.onReply(epoch, reply)
	}
}

func (s *Session) onReply(epoch int, reply ports.Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return // reply from a process that was already replaced
	}
	if s.pending == nil || s.pending.id != reply.CorrelationID {
		s.logger.Warn("discarding unmatched kernel reply", "correlation_id", reply.CorrelationID)
		return
	}

	p := s.pending
	s.pending = nil
	s.state = domain.KernelIdle

	if reply.Err != "" {
		p.done <- submitResult{err: fmt.Errorf("execution failed: %s", reply.Err)}
		return
	}

	s.execCount++
	p.done <- submitResult{outputs: reply.Outputs, count: s.execCount}
}

func (s *Session) onProcessGone(epoch int, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return // teardown of an old generation, already handled
	}

	s.logger.Warn("kernel process gone", "kernel", s.spec.Name, "err", cause)
	s.state = domain.KernelDead
	s.handle = nil
	if s.pending != nil {
		s.pending.done <- submitResult{err: fmt.Errorf("%w: process exited", domain.ErrKernelDead)}
		s.pending = nil
	}
}

// Submit sends source to the kernel and blocks until the result arrives,
// the configured timeout elapses, or the request is discarded.
//
// Only one submission may be outstanding: Busy yields domain.ErrKernelBusy,
// a dead kernel yields domain.ErrKernelDead; nothing is ever queued. An
// Unstarted session is started on first use. On success it returns the
// outputs and the session's strictly increasing execution count. On timeout
// the session degrades as if the process had crashed.
func (s *Session) Submit(ctx context.Context, source string) ([]domain.Output, int, error) {
	s.mu.Lock()

	switch s.state {
	case domain.KernelBusy, domain.KernelStarting, domain.KernelRestarting:
		s.mu.Unlock()
		return nil, 0, domain.ErrKernelBusy
	case domain.KernelDead:
		s.mu.Unlock()
		return nil, 0, domain.ErrKernelDead
	case domain.KernelUnstarted:
		if err := s.startLocked(ctx); err != nil {
			s.mu.Unlock()
			return nil, 0, err
		}
	}

	id, err := s.transport.SendExecute(ctx, s.handle, source)
	if err != nil {
		s.killLocked()
		s.mu.Unlock()
		return nil, 0, fmt.Errorf("%w: send failed: %v", domain.ErrKernelDead, err)
	}

	p := &pendingRequest{id: id, done: make(chan submitResult, 1)}
	s.pending = p
	s.state = domain.KernelBusy
	timeout := s.timeout
	s.mu.Unlock()

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case res := <-p.done:
		return res.outputs, res.count, res.err
	case <-timeoutCh:
		s.failAsCrashed(p)
		return nil, 0, fmt.Errorf("%w: execution timed out after %s", domain.ErrKernelDead, timeout)
	case <-ctx.Done():
		s.failAsCrashed(p)
		return nil, 0, ctx.Err()
	}
}

// failAsCrashed tears the process down after a timeout or caller
// cancellation. There is no interrupt channel, so killing the process is
// the only way to guarantee the interpreter stops.
func (s *Session) failAsCrashed(p *pendingRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != p {
		return // the reply raced in first, or a restart took over
	}
	s.pending = nil
	s.killLocked()
}

// killLocked terminates the current process and marks the session Dead.
// Caller holds s.mu.
func (s *Session) killLocked() {
	s.epoch++
	if s.cancelRecv != nil {
		s.cancelRecv()
		s.cancelRecv = nil
	}
	if s.handle != nil {
		_ = s.transport.Kill(s.handle)
		s.handle = nil
	}
	s.state = domain.KernelDead
}

// Restart unconditionally tears down any running process, discards the
// pending request (its waiter receives domain.ErrKernelRestarted), resets
// the execution counter, and launches a fresh process. Safe from any
// state, including Dead.
func (s *Session) Restart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		s.pending.done <- submitResult{err: domain.ErrKernelRestarted}
		s.pending = nil
	}
	s.state = domain.KernelRestarting
	s.epoch++
	if s.cancelRecv != nil {
		s.cancelRecv()
		s.cancelRecv = nil
	}
	if s.handle != nil {
		_ = s.transport.Kill(s.handle)
		s.handle = nil
	}

	s.logger.Info("kernel restarting", "kernel", s.spec.Name)
	return s.startLocked(ctx)
}

// Shutdown terminates the process if one is running. It is safe to call
// multiple times; afterwards every operation but disposal fails with
// domain.ErrKernelDead.
func (s *Session) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		s.pending.done <- submitResult{err: domain.ErrKernelDead}
		s.pending = nil
	}
	if s.state == domain.KernelDead && s.handle == nil {
		return
	}
	s.killLocked()
	s.logger.Info("kernel shut down", "kernel", s.spec.Name)
}
