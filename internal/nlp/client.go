package nlp

import "context"

type Message struct {
	Role    string
	Content string
}

type Response struct {
	Content string
}

// Client abstracts the hosted completion API. A single attempt per
// invocation; no retries are performed here.
type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}
