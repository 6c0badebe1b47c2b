package voice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"lingo/log"
	"lingo/webclient"
)

const googleEndpoint = "https://translate.google.com/translate_tts"

// maxChunkLen is the longest text the endpoint accepts per request.
// Longer inputs are split at word boundaries and the MP3 payloads are
// concatenated; MP3 frames are self-contained so this plays seamlessly.
const maxChunkLen = 200

// Google synthesizes speech through the public translate_tts endpoint,
// the same voice the web translator uses.
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

func (g *Google) Synthesize(ctx context.Context, text, lang string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &ServiceError{Provider: g.Name(), Err: errors.New("empty input")}
	}

	chunks := splitText(text, maxChunkLen)
	var audio []byte
	for i, chunk := range chunks {
		data, err := g.fetchChunk(ctx, chunk, lang, i, len(chunks))
		if err != nil {
			return "", err
		}
		audio = append(audio, data...)
	}

	f, err := os.CreateTemp("", "lingo-tts-*.mp3")
	if err != nil {
		return "", &ServiceError{Provider: g.Name(), Err: err}
	}
	if _, err := f.Write(audio); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", &ServiceError{Provider: g.Name(), Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", &ServiceError{Provider: g.Name(), Err: err}
	}
	return f.Name(), nil
}

func (g *Google) fetchChunk(ctx context.Context, chunk, lang string, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", chunk)
	q.Set("idx", strconv.Itoa(idx))
	q.Set("total", strconv.Itoa(total))
	q.Set("textlen", strconv.Itoa(len(chunk)))

	req, err := http.NewRequestWithContext(ctx, "GET", g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &ServiceError{Provider: g.Name(), Err: err}
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &ServiceError{Provider: g.Name(), Err: err}
	}
	log.APICall(g.Name(), "synthesize", *resp.Metrics, resp.StatusCode)
	if resp.StatusCode != 200 {
		return nil, &ServiceError{
			Provider: g.Name(),
			Err:      fmt.Errorf("status %d", resp.StatusCode),
		}
	}
	if len(resp.Body) == 0 {
		return nil, &ServiceError{Provider: g.Name(), Err: errors.New("empty audio response")}
	}
	return resp.Body, nil
}

// splitText breaks text into pieces no longer than limit, preferring
// word boundaries. A single word longer than the limit is cut hard.
func splitText(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	var cur strings.Builder
	for _, word := range strings.Fields(text) {
		for len(word) > limit {
			if cur.Len() > 0 {
				chunks = append(chunks, cur.String())
				cur.Reset()
			}
			chunks = append(chunks, word[:limit])
			word = word[limit:]
		}
		need := len(word)
		if cur.Len() > 0 {
			need++ // joining space
		}
		if cur.Len()+need > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
