package process_test

import (
	"context"
	"os/exec"
	"runtime"
	"testing"

	"github.com/aretw0/quire/pkg/adapters/process"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/kernel"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeKernelSpec(t *testing.T) domain.KernelSpec {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake kernel script needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	return domain.KernelSpec{
		Name:    "fakekernel",
		Command: "sh",
		Args:    []string{"testdata/fakekernel.sh"},
	}
}

func TestTransport_InfoAndExecute(t *testing.T) {
	tr := process.NewTransport()
	ctx := context.Background()

	h, err := tr.Start(ctx, fakeKernelSpec(t))
	require.NoError(t, err)
	defer tr.Kill(h)

	info, lang, err := tr.Info(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, "fakekernel", info.Name)
	assert.Equal(t, "1.0", info.Version)
	assert.Equal(t, "sh", lang.Name)

	id, err := tr.SendExecute(ctx, h, "echo hello")
	require.NoError(t, err)

	reply, err := tr.Recv(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, id, reply.CorrelationID)
	assert.Empty(t, reply.Err)
	require.Len(t, reply.Outputs, 1)
	assert.Equal(t, "ran", reply.Outputs[0].Text())
}

func TestTransport_ExecutionError(t *testing.T) {
	tr := process.NewTransport()
	ctx := context.Background()

	h, err := tr.Start(ctx, fakeKernelSpec(t))
	require.NoError(t, err)
	defer tr.Kill(h)

	_, _, err = tr.Info(ctx, h)
	require.NoError(t, err)

	id, err := tr.SendExecute(ctx, h, "boom()")
	require.NoError(t, err)

	reply, err := tr.Recv(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, id, reply.CorrelationID)
	assert.Equal(t, "boom", reply.Err)
}

func TestTransport_ProcessExit(t *testing.T) {
	tr := process.NewTransport()
	ctx := context.Background()

	h, err := tr.Start(ctx, fakeKernelSpec(t))
	require.NoError(t, err)
	defer tr.Kill(h)

	_, _, err = tr.Info(ctx, h)
	require.NoError(t, err)

	_, err = tr.SendExecute(ctx, h, "quit")
	require.NoError(t, err)

	_, err = tr.Recv(ctx, h)
	assert.ErrorIs(t, err, ports.ErrProcessExited)
}

func TestTransport_LaunchFailure(t *testing.T) {
	tr := process.NewTransport()
	_, err := tr.Start(context.Background(), domain.KernelSpec{
		Name:    "ghost",
		Command: "/nonexistent/kernel-binary",
	})
	assert.Error(t, err)

	_, err = tr.Start(context.Background(), domain.KernelSpec{Name: "empty"})
	assert.ErrorContains(t, err, "no command")
}

// TestTransport_DrivesASession wires the real transport into a kernel
// session end to end.
func TestTransport_DrivesASession(t *testing.T) {
	spec := fakeKernelSpec(t)
	s := kernel.NewSession(process.NewTransport(), spec)
	defer s.Shutdown()
	ctx := context.Background()

	require.NoError(t, s.Start(ctx))
	assert.Equal(t, domain.KernelIdle, s.State())
	assert.Equal(t, "fakekernel", s.Info().Name)

	outputs, count, err := s.Submit(ctx, "1+1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, outputs, 1)
	assert.Equal(t, "ran", outputs[0].Text())

	_, _, err = s.Submit(ctx, "boom()")
	require.Error(t, err)
	assert.Equal(t, domain.KernelIdle, s.State())

	require.NoError(t, s.Restart(ctx))
	_, count, err = s.Submit(ctx, "again")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "restart resets the counter")
}
