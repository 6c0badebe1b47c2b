package detect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"lingo/log"
	"lingo/webclient"
)

const googleEndpoint = "https://translate.googleapis.com/translate_a/single"

// Google reads the detected source language off the public translate
// endpoint (element 2 of the response array). The throwaway translation
// target is irrelevant; "en" keeps the payload small.
type Google struct {
	client   *webclient.Client
	endpoint string
}

func NewGoogle() *Google {
	return &Google{client: webclient.New(), endpoint: googleEndpoint}
}

func NewGoogleEndpoint(endpoint string) *Google {
	return &Google{client: webclient.New(), endpoint: endpoint}
}

func (g *Google) Name() string { return "google" }

func (g *Google) Detect(ctx context.Context, text string) Result {
	if strings.TrimSpace(text) == "" {
		return Unresolved()
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", "en")
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, "GET", g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return Unresolved()
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return Unresolved()
	}
	log.APICall(g.Name(), "detect", *resp.Metrics, resp.StatusCode)
	if resp.StatusCode != 200 {
		return Unresolved()
	}

	var root []any
	if err := json.Unmarshal(resp.Body, &root); err != nil || len(root) < 3 {
		return Unresolved()
	}
	code, ok := root[2].(string)
	if !ok || code == "" {
		return Unresolved()
	}
	return Detected(code)
}
