package domain

import "errors"

var (
	// ErrInvalidDocument is returned when a path failed validation; every
	// mutating action on the document is rejected with it afterwards.
	ErrInvalidDocument = errors.New("invalid notebook document")

	// ErrCorruptDocument is returned when interchange content is unparsable
	// or missing required fields. The load aborts; nothing is committed.
	ErrCorruptDocument = errors.New("corrupt notebook document")

	// ErrKernelLaunch is returned when the backend process could not start.
	ErrKernelLaunch = errors.New("kernel launch failed")

	// ErrKernelBusy is returned on submit while a request is already
	// executing. The caller must wait and retry; nothing is queued.
	ErrKernelBusy = errors.New("kernel busy")

	// ErrKernelDead is returned on submit after a crash or shutdown.
	// The caller must restart the kernel first.
	ErrKernelDead = errors.New("kernel dead")

	// ErrKernelRestarted is delivered to the waiter of an outstanding
	// request that was discarded by an explicit restart.
	ErrKernelRestarted = errors.New("kernel restarted")

	// ErrDocumentNotFound is returned by stores when no snapshot exists
	// under the requested id.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrSaveCancelled is returned when the save-path picker reported that
	// the user dismissed the selection.
	ErrSaveCancelled = errors.New("save cancelled")
)
