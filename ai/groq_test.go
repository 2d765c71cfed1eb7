package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vociary/config"
	"vociary/models"
)

func newTestGroq(t *testing.T, h http.HandlerFunc) *Groq {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewGroq(config.AI{
		Provider:           config.ProviderGroq,
		APIKey:             "gsk_test",
		BaseURL:            srv.URL + "/openai/v1/",
		GenerationModel:    "llm-test",
		TranscriptionModel: "stt-test",
		Timeout:            2 * time.Second,
	})
}

func TestGroq_Transcribe(t *testing.T) {
	g := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/openai/v1/audio/transcriptions", r.URL.Path)
		require.Equal(t, "Bearer gsk_test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "stt-test", r.FormValue("model"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		require.Equal(t, "entry.webm", hdr.Filename)
		require.Equal(t, "audio/webm", hdr.Header.Get("Content-Type"))
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, []byte("RIFF"), data)

		_ = json.NewEncoder(w).Encode(map[string]string{"text": "hello diary"})
	})

	text, err := g.Transcribe(context.Background(), models.Audio{
		Filename: "entry.webm", ContentType: "audio/webm", Data: []byte("RIFF"),
	})
	require.NoError(t, err)
	require.Equal(t, "hello diary", text)
}

func TestGroq_Complete(t *testing.T) {
	g := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "llm-test", req.Model)
		require.InDelta(t, 0.7, req.Temperature, 1e-9)
		require.Len(t, req.Messages, 2)
		require.Equal(t, "system", req.Messages[0].Role)
		require.Equal(t, "sys", req.Messages[0].Content)
		require.Equal(t, "user", req.Messages[1].Role)
		require.Equal(t, "usr", req.Messages[1].Content)

		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"drafted"}}]}`)
	})

	out, err := g.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	require.Equal(t, "drafted", out)
}

func TestGroq_UpstreamStatus(t *testing.T) {
	g := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})

	_, err := g.Complete(context.Background(), "s", "u")
	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, http.StatusTooManyRequests, ce.StatusCode)
	require.Contains(t, ce.Body, "rate limited")
	require.Contains(t, err.Error(), "generation failed with status 429")

	_, err = g.Transcribe(context.Background(), models.Audio{Data: []byte("x")})
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "transcription", ce.Op)
}

func TestGroq_NoChoices(t *testing.T) {
	g := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	})
	_, err := g.Complete(context.Background(), "s", "u")
	var ce *ClientError
	require.True(t, errors.As(err, &ce))
}

func TestGroq_TransportFailure(t *testing.T) {
	g := NewGroq(config.AI{BaseURL: "http://127.0.0.1:1", APIKey: "k", Timeout: time.Second})
	_, err := g.Complete(context.Background(), "s", "u")
	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	require.Zero(t, ce.StatusCode)
	require.NotNil(t, ce.Err)
}

func TestNew_SelectsStrategy(t *testing.T) {
	tr, gen, err := New(config.AI{Provider: config.ProviderStub})
	require.NoError(t, err)
	require.IsType(t, Stub{}, tr)
	require.IsType(t, Stub{}, gen)

	tr, gen, err = New(config.AI{Provider: config.ProviderGroq, APIKey: "k", Timeout: time.Second})
	require.NoError(t, err)
	require.IsType(t, &Groq{}, tr)
	require.IsType(t, &Groq{}, gen)

	_, _, err = New(config.AI{Provider: "openai"})
	require.Error(t, err)
}
