package mail

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// UnsubscribeTargets holds the parsed endpoints from a List-Unsubscribe
// header.
type UnsubscribeTargets struct {
	// URL is the first https/http endpoint, if any.
	URL string

	// Mailto is the first mailto address, if any.
	Mailto string
}

// ParseListUnsubscribe parses an RFC 2369 List-Unsubscribe header value
// of the form "<https://...>, <mailto:...>" into its endpoints.
func ParseListUnsubscribe(header string) UnsubscribeTargets {
	var targets UnsubscribeTargets

	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(part, "<")
		part = strings.TrimSuffix(part, ">")
		if part == "" {
			continue
		}

		switch {
		case strings.HasPrefix(part, "mailto:"):
			if targets.Mailto == "" {
				targets.Mailto = strings.TrimPrefix(part, "mailto:")
				// Strip any ?subject=... query from the address.
				if i := strings.IndexByte(targets.Mailto, '?'); i >= 0 {
					targets.Mailto = targets.Mailto[:i]
				}
			}
		case strings.HasPrefix(part, "https://"), strings.HasPrefix(part, "http://"):
			if targets.URL == "" {
				targets.URL = part
			}
		}
	}

	return targets
}

// oneClickClient is the HTTP client used for one-click unsubscribe
// POSTs. Unsubscribe endpoints are frequently slow; the timeout keeps a
// dead endpoint from pinning the business goroutine.
var oneClickClient = &http.Client{
	Timeout: 15 * time.Second,
}

// OneClickUnsubscribe performs an RFC 8058 one-click unsubscribe POST
// against the given URL. The sender advertised one-click support via
// List-Unsubscribe-Post, so no user interaction is required.
func OneClickUnsubscribe(ctx context.Context, url string) error {
	body := strings.NewReader("List-Unsubscribe=One-Click")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("building unsubscribe request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := oneClickClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting unsubscribe to %s: %w", url, err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unsubscribe endpoint %s returned %s", url, resp.Status)
	}

	return nil
}
