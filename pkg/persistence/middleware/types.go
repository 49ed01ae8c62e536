// Package middleware provides composable wrappers around a SnapshotStore,
// for policies applied to snapshots at rest.
package middleware

import "github.com/aretw0/quire/pkg/ports"

// Middleware allows wrapping a SnapshotStore to add behavior.
type Middleware func(ports.SnapshotStore) ports.SnapshotStore

// Chain applies the middlewares to the store, first middleware outermost.
func Chain(store ports.SnapshotStore, middlewares ...Middleware) ports.SnapshotStore {
	for i := len(middlewares) - 1; i >= 0; i-- {
		store = middlewares[i](store)
	}
	return store
}
