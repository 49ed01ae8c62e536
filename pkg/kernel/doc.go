/*
Package kernel implements the kernel session: the lifecycle owner of one
external interpreter process.

A Session is a small state machine (Unstarted, Starting, Idle, Busy,
Restarting, Dead) that correlates execute requests with the asynchronous
replies of the process behind a ports.KernelTransport. Exactly one request
may be outstanding; replies that do not match the pending correlation id
are discarded. Restart is the only cancellation primitive: it discards the
in-flight request (the waiter receives domain.ErrKernelRestarted), resets
the execution counter, and brings up a fresh process.
*/
package kernel
