package summarizer

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// PushClient receives the summary over a websocket instead of polling.
// The backend sends one terminal frame per job.
type PushClient struct {
	url         string
	dialer      *websocket.Dialer
	noticeDelay time.Duration
	onNotice    func()
}

// NewPushClient builds a websocket client against url. onNotice, when
// non-nil, fires once if the job is still running after noticeDelay.
func NewPushClient(url string, noticeDelay time.Duration, onNotice func()) *PushClient {
	return &PushClient{
		url:         url,
		dialer:      websocket.DefaultDialer,
		noticeDelay: noticeDelay,
		onNotice:    onNotice,
	}
}

type pushRequest struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

type pushFrame struct {
	Summary string `json:"summary"`
	Error   string `json:"error"`
}

// Resolve dials the backend, submits the job and blocks until the
// terminal frame arrives or ctx ends.
func (c *PushClient) Resolve(ctx context.Context, req Request) (string, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("dial summarizer: %w", err)
	}
	defer conn.Close()

	// unblock the read below when ctx ends
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if c.onNotice != nil {
		timer := time.AfterFunc(c.noticeDelay, c.onNotice)
		defer timer.Stop()
	}

	if err := conn.WriteJSON(pushRequest{URL: req.SourceURL, Text: req.Text}); err != nil {
		return "", fmt.Errorf("submit job: %w", err)
	}

	var frame pushFrame
	if err := conn.ReadJSON(&frame); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("read result: %w", err)
	}
	if frame.Error != "" {
		return "", &FailureError{Detail: frame.Error}
	}
	return frame.Summary, nil
}
