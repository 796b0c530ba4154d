package port

import "context"

// CompletionClient abstracts a chat-completion model call: one prompt
// in, the assistant's raw text out.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
