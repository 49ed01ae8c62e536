/*
Package ports defines the interfaces (Ports) between the Quire core and the
outside world, following Hexagonal Architecture.

The core (pkg/document, pkg/kernel) depends only on these contracts; adapters
under pkg/adapters provide the implementations (process transport, redis and
memory snapshot stores, HTTP and MCP control surfaces).
*/
package ports
