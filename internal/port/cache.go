package port

import "context"

// ResponseCache stores raw model responses keyed by prompt hash.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, model, response string) error
	Close() error
}
