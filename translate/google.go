package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"lingo/log"
	"lingo/webclient"
)

const googleEndpoint = "https://translate.googleapis.com/translate_a/single"

// Google translates through the public web endpoint of Google Translate,
// the same backend the original desktop app relied on. No API key.
type Google struct {
	client   *webclient.Client
	endpoint string

	// LastMetrics holds the network timings of the most recent call, for
	// diagnostics only. Not safe for concurrent readers during a call.
	LastMetrics *webclient.Metrics
}

func NewGoogle() *Google {
	return &Google{client: webclient.New(), endpoint: googleEndpoint}
}

// NewGoogleEndpoint is used by tests to point at a local server.
func NewGoogleEndpoint(endpoint string) *Google {
	return &Google{client: webclient.New(), endpoint: endpoint}
}

func (g *Google) Name() string { return "google" }

// Warm opens the connection ahead of the first request.
func (g *Google) Warm() { g.client.Warm(g.endpoint) }

func (g *Google) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &ServiceError{Provider: g.Name(), Err: fmt.Errorf("empty input")}
	}
	if source == "" {
		source = Auto
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, "GET", g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", &ServiceError{Provider: g.Name(), Err: err}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &ServiceError{Provider: g.Name(), Err: err}
	}
	g.LastMetrics = resp.Metrics
	log.APICall(g.Name(), "translate", *resp.Metrics, resp.StatusCode)
	if resp.StatusCode != 200 {
		return "", &ServiceError{
			Provider: g.Name(),
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(resp.Body), 200)),
		}
	}

	translated, _, err := parseSingleResponse(resp.Body)
	if err != nil {
		return "", &ServiceError{Provider: g.Name(), Err: err}
	}
	return translated, nil
}

// parseSingleResponse walks the untyped array-of-arrays the endpoint returns:
// element 0 is the sentence list (each sentence: [translated, original, ...]),
// element 2 is the detected source language.
func parseSingleResponse(body []byte) (translated, detected string, err error) {
	var root []any
	if err := json.Unmarshal(body, &root); err != nil {
		return "", "", fmt.Errorf("response parse error: %w", err)
	}
	if len(root) == 0 {
		return "", "", fmt.Errorf("empty response")
	}

	sentences, ok := root[0].([]any)
	if !ok {
		return "", "", fmt.Errorf("unexpected response shape")
	}
	var b strings.Builder
	for _, s := range sentences {
		seg, ok := s.([]any)
		if !ok || len(seg) == 0 {
			continue
		}
		if t, ok := seg[0].(string); ok {
			b.WriteString(t)
		}
	}

	if len(root) > 2 {
		if d, ok := root[2].(string); ok {
			detected = d
		}
	}
	return b.String(), detected, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
