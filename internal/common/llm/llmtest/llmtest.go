// Package llmtest provides a scripted llm.Completer for stage tests.
package llmtest

import (
	"context"
	"sync"

	"jira-askbot/internal/common/llm"
)

// Completer answers by request template. A template with no scripted
// reply fails with Err, or llm.ErrModelUnavailable when Err is nil.
type Completer struct {
	Replies map[string]string
	Err     error

	mu    sync.Mutex
	calls []llm.Request
}

func New(replies map[string]string) *Completer {
	return &Completer{Replies: replies}
}

// Failing returns a completer whose every call fails with err.
func Failing(err error) *Completer {
	return &Completer{Err: err}
}

func (c *Completer) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, req)
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if reply, ok := c.Replies[req.Template]; ok {
		return reply, nil
	}
	if c.Err != nil {
		return "", c.Err
	}
	return "", llm.ErrModelUnavailable
}

// Calls returns the requests seen so far.
func (c *Completer) Calls() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llm.Request(nil), c.calls...)
}

// CallCount counts requests for one template.
func (c *Completer) CallCount(template string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, r := range c.calls {
		if r.Template == template {
			n++
		}
	}
	return n
}
