package push

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// SSEChannel subscribes to the orders API's server-sent-events stream.
// Joining the same room twice just opens a second identical stream, so
// Subscribe is idempotent from the engine's point of view.
type SSEChannel struct {
	HTTP    *http.Client
	BaseURL string
}

func NewSSEChannel(baseURL string) *SSEChannel {
	// No client timeout: the stream is long-lived; ctx handles shutdown.
	return &SSEChannel{HTTP: &http.Client{}, BaseURL: baseURL}
}

func (c *SSEChannel) Subscribe(ctx context.Context, scope Scope) (<-chan Event, error) {
	url := fmt.Sprintf("%s/api/orders/stream?scope=%s&id=%s", c.BaseURL, scope.Kind, scope.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("stream subscribe: %s", res.Status)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer res.Body.Close()

		var eventName string
		sc := bufio.NewScanner(res.Body)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := sc.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
				ev, err := decodeEvent(eventName, []byte(data))
				if err != nil {
					log.Printf("[push] dropping event: %v", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			case line == "":
				eventName = ""
			}
		}
		if err := sc.Err(); err != nil && ctx.Err() == nil {
			log.Printf("[push] stream closed: %v", err)
		}
	}()
	return out, nil
}
