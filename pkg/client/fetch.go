package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/livesync/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Fetcher retrieves posts outside the socket, for reconciliation and
// previews.
type Fetcher interface {
	FetchPost(ctx context.Context, id uint64) (*protocol.PostData, error)
}

// HTTPFetcher reads posts from the board's JSON API. Transport errors,
// 429 and 5xx responses are retried with exponential backoff.
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	tracer     trace.Tracer
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher returns a fetcher for the API rooted at baseURL. A nil
// httpClient uses one with a 15 second timeout.
func NewHTTPFetcher(baseURL string, httpClient *http.Client) *HTTPFetcher {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPFetcher{
		baseURL:    baseURL,
		httpClient: httpClient,
		maxRetries: 3,
		baseDelay:  100 * time.Millisecond,
		maxDelay:   2 * time.Second,
		tracer:     tracer(""),
	}
}

// FetchPost returns the current state of a post.
func (f *HTTPFetcher) FetchPost(ctx context.Context, id uint64) (*protocol.PostData, error) {
	ctx, span := startSpan(ctx, f.tracer, "livesync.fetch_post",
		attribute.Int64("livesync.post_id", int64(id)))

	var post protocol.PostData
	err := f.getJSON(ctx, "/json/post/"+strconv.FormatUint(id, 10), &post)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// FetchThread returns a thread with its replies. A positive lastN limits
// the replies to the most recent ones.
func (f *HTTPFetcher) FetchThread(ctx context.Context, board string, thread uint64, lastN int) (*protocol.ThreadData, error) {
	ctx, span := startSpan(ctx, f.tracer, "livesync.fetch_thread",
		attribute.String("livesync.board", board),
		attribute.Int64("livesync.thread", int64(thread)))

	path := fmt.Sprintf("/json/%s/%d", url.PathEscape(board), thread)
	if lastN > 0 {
		path += "?last=" + strconv.Itoa(lastN)
	}
	var data protocol.ThreadData
	err := f.getJSON(ctx, path, &data)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

func (f *HTTPFetcher) getJSON(ctx context.Context, path string, out any) error {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := f.httpClient.Do(req)
		if err != nil {
			if attempt < f.maxRetries {
				if waitErr := waitWithContext(ctx, f.retryDelay(attempt+1, "")); waitErr != nil {
					return waitErr
				}
				continue
			}
			return err
		}
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return readErr
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return json.Unmarshal(body, out)
		}

		if (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500) && attempt < f.maxRetries {
			if waitErr := waitWithContext(ctx, f.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return waitErr
			}
			continue
		}

		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}
}

func (f *HTTPFetcher) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfter(retryAfterHeader); retryAfter > 0 {
		return min(retryAfter, f.maxDelay)
	}
	delay := f.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= f.maxDelay {
			return f.maxDelay
		}
	}
	return min(delay, f.maxDelay)
}

func parseRetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if ts, err := http.ParseTime(header); err == nil {
		if delta := time.Until(ts); delta > 0 {
			return delta
		}
	}
	return 0
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
