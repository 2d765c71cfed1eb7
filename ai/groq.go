package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"vociary/config"
	"vociary/models"
)

const maxErrorBody = 4 << 10

// Groq calls the OpenAI-compatible Groq endpoints.
type Groq struct {
	http               *http.Client
	baseURL            string
	apiKey             string
	generationModel    string
	transcriptionModel string
	temperature        float64
}

func NewGroq(cfg config.AI) *Groq {
	return &Groq{
		http:               &http.Client{Timeout: cfg.Timeout},
		baseURL:            strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:             cfg.APIKey,
		generationModel:    cfg.GenerationModel,
		transcriptionModel: cfg.TranscriptionModel,
		temperature:        0.7,
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the recording as multipart form data.
func (g *Groq) Transcribe(ctx context.Context, audio models.Audio) (string, error) {
	const op = "transcription"

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	filename := audio.Filename
	if filename == "" {
		filename = "audio.webm"
	}
	contentType := audio.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", &ClientError{Op: op, Err: err}
	}
	if _, err := part.Write(audio.Data); err != nil {
		return "", &ClientError{Op: op, Err: err}
	}
	if err := mw.WriteField("model", g.transcriptionModel); err != nil {
		return "", &ClientError{Op: op, Err: err}
	}
	if err := mw.Close(); err != nil {
		return "", &ClientError{Op: op, Err: err}
	}

	var out transcriptionResponse
	if err := g.do(ctx, op, "/audio/transcriptions", mw.FormDataContentType(), &body, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends a two-message chat completion and returns the first choice.
func (g *Groq) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	const op = "generation"

	payload, err := json.Marshal(chatRequest{
		Model: g.generationModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: g.temperature,
	})
	if err != nil {
		return "", &ClientError{Op: op, Err: err}
	}

	var out chatResponse
	if err := g.do(ctx, op, "/chat/completions", "application/json", bytes.NewReader(payload), &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", &ClientError{Op: op, Err: fmt.Errorf("response has no choices")}
	}
	return out.Choices[0].Message.Content, nil
}

func (g *Groq) do(ctx context.Context, op, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, body)
	if err != nil {
		return &ClientError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := g.http.Do(req)
	if err != nil {
		return &ClientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &ClientError{Op: op, StatusCode: resp.StatusCode, Body: string(b)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}
