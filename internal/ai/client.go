// Package ai talks to the external generative-language API used for
// natural-language and voice booking filling and the assistant chat. Its
// output is untrusted input: extraction results are parsed into a
// ProposedBooking and go through normal validation before touching the store.
package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studiobook/internal/config"
	"studiobook/internal/metrics"
	"studiobook/internal/models"
)

// ErrEmptyResponse means the model returned nothing usable; callers show a
// generic "could not understand" message.
var ErrEmptyResponse = errors.New("ai: empty response")

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewClient(cfg config.AIConfig, logger *zerolog.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// generateContent request/response shapes, the subset of the API we use.

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// ExtractBooking asks the model to turn free text into a partial booking
// record, with today's date as context for relative dates.
func (c *Client) ExtractBooking(ctx context.Context, text, today string) (*models.ProposedBooking, error) {
	parts := []part{{Text: extractPrompt(today) + "\n\n" + text}}
	proposal, err := c.extract(ctx, parts)
	if err != nil {
		metrics.IncAI("extract_text", "error")
		return nil, err
	}
	metrics.IncAI("extract_text", "ok")
	return proposal, nil
}

// ExtractBookingFromAudio does the same for a recorded voice payload.
func (c *Client) ExtractBookingFromAudio(ctx context.Context, audio []byte, mimeType, today string) (*models.ProposedBooking, error) {
	parts := []part{
		{Text: extractPrompt(today)},
		{InlineData: &inlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(audio),
		}},
	}
	proposal, err := c.extract(ctx, parts)
	if err != nil {
		metrics.IncAI("extract_audio", "error")
		return nil, err
	}
	metrics.IncAI("extract_audio", "ok")
	return proposal, nil
}

// Chat answers a free-text question about the collection. Read-only: the
// bookings are serialized into the prompt as context, never modified.
func (c *Client) Chat(ctx context.Context, question string, bookings []models.Booking) (string, error) {
	contextJSON, err := json.Marshal(bookings)
	if err != nil {
		return "", fmt.Errorf("marshal chat context: %w", err)
	}

	text, err := c.generate(ctx, []part{{Text: chatPrompt(string(contextJSON), question)}})
	if err != nil {
		metrics.IncAI("chat", "error")
		return "", err
	}
	metrics.IncAI("chat", "ok")
	return strings.TrimSpace(text), nil
}

func (c *Client) extract(ctx context.Context, parts []part) (*models.ProposedBooking, error) {
	text, err := c.generate(ctx, parts)
	if err != nil {
		return nil, err
	}

	var proposal models.ProposedBooking
	if err := json.Unmarshal([]byte(stripFences(text)), &proposal); err != nil {
		c.logger.Warn().Str("response", text).Msg("unparseable extraction response")
		return nil, fmt.Errorf("%w: %v", ErrEmptyResponse, err)
	}
	if proposal == (models.ProposedBooking{}) {
		return nil, ErrEmptyResponse
	}
	return &proposal, nil
}

func (c *Client) generate(ctx context.Context, parts []part) (string, error) {
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)

	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: parts}}})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generative api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("generative api: http %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generative api response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// stripFences removes a markdown code fence the model often wraps JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
