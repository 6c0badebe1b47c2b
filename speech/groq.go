package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"lingo/log"
	"lingo/webclient"
)

const groqEndpoint = "https://api.groq.com/openai/v1/audio/transcriptions"

// Groq recognizes speech with whisper-large via the Groq API. Used when
// GROQ_API_KEY is set; noticeably more accurate than the keyless endpoint.
type Groq struct {
	client   *webclient.Client
	endpoint string
	apiKey   string
}

func NewGroq(apiKey string) *Groq {
	return &Groq{client: webclient.New(), endpoint: groqEndpoint, apiKey: apiKey}
}

func NewGroqEndpoint(endpoint, apiKey string) *Groq {
	return &Groq{client: webclient.New(), endpoint: endpoint, apiKey: apiKey}
}

func (g *Groq) Name() string { return "groq" }

func (g *Groq) Warm() { g.client.Warm(g.endpoint) }

type groqResponse struct {
	Text string `json:"text"`
}

func (g *Groq) Recognize(ctx context.Context, flacData []byte, lang string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.flac")
	if err != nil {
		return "", &ServiceError{Provider: g.Name(), Err: err}
	}
	if _, err := part.Write(flacData); err != nil {
		return "", &ServiceError{Provider: g.Name(), Err: err}
	}

	writer.WriteField("model", "whisper-large-v3-turbo")
	writer.WriteField("response_format", "json")
	// whisper wants a bare ISO 639-1 code; strip any region suffix.
	if lang != "" && lang != "auto" {
		if i := strings.IndexAny(lang, "-_"); i > 0 {
			lang = lang[:i]
		}
		writer.WriteField("language", lang)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", g.endpoint, &body)
	if err != nil {
		return "", &ServiceError{Provider: g.Name(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &ServiceError{Provider: g.Name(), Err: err}
	}
	log.APICall(g.Name(), "recognize", *resp.Metrics, resp.StatusCode)
	if resp.StatusCode != 200 {
		return "", &ServiceError{
			Provider: g.Name(),
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, resp.Body),
		}
	}

	var gResp groqResponse
	if err := json.Unmarshal(resp.Body, &gResp); err != nil {
		return "", &ServiceError{Provider: g.Name(), Err: fmt.Errorf("response parse error: %w", err)}
	}
	return gResp.Text, nil
}
