package oracle

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/YoungY620/codeflow/internal"
)

// Recorder writes every exchange with the wrapped oracle to the history log.
type Recorder struct {
	next  Oracle
	name  string
	calls atomic.Int64
}

// Record wraps o. name identifies the backend in history entries.
func Record(o Oracle, name string) *Recorder {
	return &Recorder{next: o, name: name}
}

// Calls returns how many prompts went through the recorder.
func (r *Recorder) Calls() int64 {
	return r.calls.Load()
}

func (r *Recorder) Ask(ctx context.Context, prompt string) (string, error) {
	id := r.calls.Add(1)
	h := internal.History()
	h.LogRequest(r.name, id, map[string]int{"prompt_bytes": len(prompt)})

	start := time.Now()
	out, err := r.next.Ask(ctx, prompt)
	if err != nil {
		h.LogResponse(id, nil, Stderr(err), time.Since(start))
		return out, err
	}
	h.LogResponse(id, map[string]int{"output_bytes": len(out)}, nil, time.Since(start))
	return out, nil
}
