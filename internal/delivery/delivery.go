// Package delivery defines the contract every transport-facing server
// implements so the application entrypoints can start them uniformly.
package delivery

import "context"

// Delivery is a long-running server owned by the Fx application. Serve blocks
// until the server stops; shutdown happens through Fx lifecycle hooks.
type Delivery interface {
	Serve(ctx context.Context) error
}
