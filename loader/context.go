package loader

import "context"

type loaderKey struct{}

// WithLoader returns a copy of ctx that carries l as the current loader.
// The binding is visible only through the returned context, so the caller's
// context is left as it was on every exit path.
func WithLoader(ctx context.Context, l *Loader) context.Context {
	return context.WithValue(ctx, loaderKey{}, l)
}

// FromContext returns the current loader carried by ctx.
func FromContext(ctx context.Context) (*Loader, bool) {
	l, ok := ctx.Value(loaderKey{}).(*Loader)
	return l, ok && l != nil
}
