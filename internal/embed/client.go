package embed

import "context"

// Client produces a dense vector for a piece of entity text. Implementations
// must be safe for concurrent use.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
