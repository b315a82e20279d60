// Package llm defines the narrow interface the pipeline uses to invoke a
// language model. Concrete providers live under modules/ and register
// themselves with the registry; tests use the fake in internal/testutil.
package llm

import "context"

// Message is a single chat message in a prompt.
type Message struct {
	Role    string
	Content string
}

// Client generates a completion for an ordered sequence of prompt messages.
// Implementations are expected to be safe for concurrent use; transient
// failures are handled by the caller's retry policy, not the client.
type Client interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// System and User are convenience constructors for the two roles the
// pipeline actually sends.
func System(content string) Message { return Message{Role: "system", Content: content} }

// User returns a user-role message.
func User(content string) Message { return Message{Role: "user", Content: content} }
