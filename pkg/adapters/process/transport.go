// Package process implements the kernel transport over a local child
// process speaking newline-delimited JSON on stdio.
//
// The wire protocol is deliberately small: the editor writes one request
// frame per line ({"op":"kernel_info",...} or {"op":"execute",...}) and the
// kernel answers with one reply frame per line carrying the request's
// correlation id. Anything the kernel prints on stderr is forwarded to the
// logger for diagnosis.
package process

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"

	"github.com/aretw0/quire/internal/logging"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/google/uuid"
)

// Transport launches kernel backends as child processes.
type Transport struct {
	logger *slog.Logger
}

// Option configures the transport.
type Option func(*Transport)

// WithLogger configures a logger for process lifecycle and stderr output.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// NewTransport creates a process-backed kernel transport.
func NewTransport(opts ...Option) *Transport {
	t := &Transport{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// proc is one running kernel process.
type proc struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Start launches the backend described by spec.
func (t *Transport) Start(ctx context.Context, spec domain.KernelSpec) (ports.Handle, error) {
	if spec.Command == "" {
		return nil, fmt.Errorf("kernel spec %q has no command", spec.Name)
	}

	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	env := cmd.Environ()
	for k, v := range spec.Environment {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open kernel stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open kernel stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open kernel stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to launch kernel %q: %w", spec.Command, err)
	}

	go t.drainStderr(spec.Name, stderr)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	t.logger.Info("kernel process launched", "kernel", spec.Name, "command", spec.Command, "pid", cmd.Process.Pid)
	return &proc{cmd: cmd, stdin: stdin, scanner: scanner}, nil
}

func (t *Transport) drainStderr(name string, r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		t.logger.Debug("kernel stderr", "kernel", name, "line", sc.Text())
	}
}

// Info negotiates the kernel metadata. It must be called before the reply
// loop starts consuming the stream; the session does this during startup.
func (t *Transport) Info(ctx context.Context, h ports.Handle) (domain.KernelInfo, domain.LanguageInfo, error) {
	p := h.(*proc)
	id := uuid.NewString()
	if err := p.send(frame{Op: opKernelInfo, ID: id}); err != nil {
		return domain.KernelInfo{}, domain.LanguageInfo{}, err
	}

	// The kernel may emit banners or late replies first; bounded skip.
	for i := 0; i < 16; i++ {
		f, err := p.read()
		if err != nil {
			return domain.KernelInfo{}, domain.LanguageInfo{}, err
		}
		if f.ID != id || f.KernelInfo == nil {
			continue
		}
		lang := domain.LanguageInfo{}
		if f.LanguageInfo != nil {
			lang = *f.LanguageInfo
		}
		return *f.KernelInfo, lang, nil
	}
	return domain.KernelInfo{}, domain.LanguageInfo{}, fmt.Errorf("kernel did not answer the info request")
}

// SendExecute submits source and returns the correlation id of the
// eventual reply.
func (t *Transport) SendExecute(ctx context.Context, h ports.Handle, source string) (string, error) {
	p := h.(*proc)
	id := uuid.NewString()
	if err := p.send(frame{Op: opExecute, ID: id, Code: source}); err != nil {
		return "", err
	}
	return id, nil
}

// Recv blocks until the next reply frame arrives. It unblocks with
// ports.ErrProcessExited when the process closes its stdout; killing the
// process is the way to cancel a pending receive.
func (t *Transport) Recv(ctx context.Context, h ports.Handle) (ports.Reply, error) {
	p := h.(*proc)
	for {
		f, err := p.read()
		if err != nil {
			return ports.Reply{}, ports.ErrProcessExited
		}
		if f.Op != "" {
			continue // request echoes or notifications are not replies
		}
		return ports.Reply{CorrelationID: f.ID, Outputs: f.Outputs, Err: f.Error}, nil
	}
}

// Kill terminates the process unconditionally and reaps it.
func (t *Transport) Kill(h ports.Handle) error {
	p := h.(*proc)
	p.closeOnce.Do(func() {
		_ = p.stdin.Close()
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		_ = p.cmd.Wait()
	})
	return nil
}

func (p *proc) send(f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode kernel frame: %w", err)
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if _, err := p.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to kernel: %w", err)
	}
	return nil
}

func (p *proc) read() (frame, error) {
	for p.scanner.Scan() {
		line := p.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var f frame
		if err := json.Unmarshal(line, &f); err != nil {
			// Not a protocol frame; kernels are allowed to be chatty.
			continue
		}
		return f, nil
	}
	if err := p.scanner.Err(); err != nil {
		return frame{}, err
	}
	return frame{}, io.EOF
}
