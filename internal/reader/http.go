package reader

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"

	"fixtures/internal/source"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 64 << 20

// DefaultHTTPTimeout is the client timeout used when none is configured.
const DefaultHTTPTimeout = 30 * time.Second

// HTTP fetches http:// and https:// sources with a GET request.
// A nil client gets one with DefaultHTTPTimeout.
func HTTP(client *http.Client) source.ReadFunc {
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return func(ctx context.Context, url string) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json, application/yaml, text/csv, */*")

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("http request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			return "", fmt.Errorf("http %d %s: %w", resp.StatusCode, url, fs.ErrNotExist)
		}
		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return "", fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return "", fmt.Errorf("read body: %w", err)
		}
		return string(data), nil
	}
}
