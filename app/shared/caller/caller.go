// Package caller carries the identity the transport resolved for a request.
package caller

import "context"

// Caller is an opaque identity plus an administrator flag.
type Caller struct {
	ID         string `json:"id"`
	Privileged bool   `json:"privileged"`
}

// System is used for work the service performs on its own behalf.
var System = Caller{ID: "system", Privileged: true}

type ctxKey struct{}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the caller stored on ctx.
func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(ctxKey{}).(Caller)
	return c, ok
}
