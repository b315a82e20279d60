// Package testutil holds shared fakes for pipeline, graph, executor, and
// service tests: a scripted LLM, a canned searcher, a recording notifier, and
// a sleep recorder for retry timing assertions.
package testutil

import (
	"context"
	"sync"

	"github.com/vk/draftpipe/internal/llm"
)

// ScriptedLLM is a fake llm.Client that replays a fixed script of responses.
// Each call consumes one script entry in order; an entry with a non-nil Err
// simulates a provider failure for that call. Calls past the end of the
// script return the last entry again, which keeps review loops deterministic.
type ScriptedLLM struct {
	mu      sync.Mutex
	script  []ScriptEntry
	calls   int
	prompts []string
}

// ScriptEntry is one scripted Generate outcome.
type ScriptEntry struct {
	Response string
	Err      error
}

// NewScriptedLLM builds a ScriptedLLM from response strings. Use Fail to
// splice in failures.
func NewScriptedLLM(responses ...string) *ScriptedLLM {
	s := &ScriptedLLM{}
	for _, r := range responses {
		s.script = append(s.script, ScriptEntry{Response: r})
	}
	return s
}

// NewScriptedLLMEntries builds a ScriptedLLM from explicit entries.
func NewScriptedLLMEntries(entries ...ScriptEntry) *ScriptedLLM {
	return &ScriptedLLM{script: entries}
}

// Generate implements llm.Client.
func (s *ScriptedLLM) Generate(_ context.Context, messages []llm.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(messages) > 0 {
		s.prompts = append(s.prompts, messages[len(messages)-1].Content)
	}

	idx := s.calls
	s.calls++
	if len(s.script) == 0 {
		return "", nil
	}
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	entry := s.script[idx]
	return entry.Response, entry.Err
}

// Calls reports how many times Generate ran.
func (s *ScriptedLLM) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Prompts returns the user prompt of every Generate call, in order.
func (s *ScriptedLLM) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.prompts))
	copy(out, s.prompts)
	return out
}
