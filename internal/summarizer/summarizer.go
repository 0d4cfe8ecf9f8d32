// Package summarizer talks to the external summarization backend. The
// backend exposes two reconciliation styles, polling over HTTP and push
// over a websocket, behind the same Resolver interface.
package summarizer

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrJobFailed reports that the backend accepted the job and later
// marked it failed.
var ErrJobFailed = errors.New("summarization job failed")

// Request is one summarization job.
type Request struct {
	SourceURL string
	Text      string
}

// Resolver submits a job and blocks until the summary is available, the
// job fails, or ctx ends.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (string, error)
}

type timeoutResolver struct {
	inner   Resolver
	timeout time.Duration
}

// WithTimeout bounds every Resolve call with a deadline.
func WithTimeout(r Resolver, timeout time.Duration) Resolver {
	if timeout <= 0 {
		return r
	}
	return &timeoutResolver{inner: r, timeout: timeout}
}

func (t *timeoutResolver) Resolve(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Resolve(ctx, req)
}

// FailureError carries the backend's failure detail.
type FailureError struct {
	Detail string
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("summarization job failed: %s", e.Detail)
}

func (e *FailureError) Unwrap() error { return ErrJobFailed }
