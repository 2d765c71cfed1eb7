package main

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap"

	"vociary/config"
	"vociary/models"
)

var (
	testUserEmail    = "a@b.com"
	testUserName     = "alice"
	testUserPassword = "integration123"
)

func setupIntegrationTest(t *testing.T) http.Handler {
	t.Helper()
	t.Setenv("SECRET_KEY", "integration-secret")
	t.Setenv("DB_DRIVER", config.DriverSQLite)
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "integration.db"))
	t.Setenv("AI_PROVIDER", config.ProviderStub)
	t.Setenv("AUDIO_ARCHIVE_BUCKET", "")
	t.Setenv("API_VERSION", "v1")
	t.Setenv("FRONTEND_URL", "")

	cfg, err := config.FromEnv()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	handler, cleanup, err := setup(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(cleanup)
	return handler
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func commit(t *testing.T, router http.Handler, token, content string, diaryID int64, date models.Date) models.Entry {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"content": content, "diary_id": diaryID, "entry_date": date})
	req := httptest.NewRequest("POST", "/api/v1/entries/commit", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := serve(router, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("commit: expected status OK, got %v: %s", resp.Code, resp.Body.String())
	}
	var e models.Entry
	json.Unmarshal(resp.Body.Bytes(), &e)
	return e
}

func TestJournalFlow(t *testing.T) {
	router := setupIntegrationTest(t)

	// Sign up
	signupBody, _ := json.Marshal(map[string]string{
		"email":    testUserEmail,
		"username": testUserName,
		"password": testUserPassword,
	})
	req := httptest.NewRequest("POST", "/api/v1/auth/signup", bytes.NewBuffer(signupBody))
	req.Header.Set("Content-Type", "application/json")
	resp := serve(router, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("signup: expected status Created, got %v: %s", resp.Code, resp.Body.String())
	}

	// Log in with form data
	form := url.Values{"username": {testUserName}, "password": {testUserPassword}}
	req = httptest.NewRequest("POST", "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp = serve(router, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("login: expected status OK, got %v", resp.Code)
	}
	var loginResp map[string]any
	json.Unmarshal(resp.Body.Bytes(), &loginResp)
	accessToken, _ := loginResp["access_token"].(string)
	if accessToken == "" {
		t.Fatal("login: no access_token in response")
	}

	// Upload audio
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("audio_file", "test_audio.mp3")
	fw.Write([]byte("mock audio data"))
	mw.Close()
	req = httptest.NewRequest("POST", "/api/v1/entries/process_audio", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp = serve(router, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("process_audio: expected status OK, got %v: %s", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected CORS header from the full middleware stack")
	}
	var preview models.Preview
	json.Unmarshal(resp.Body.Bytes(), &preview)
	if preview.OriginalContent != "" {
		t.Errorf("expected empty original content, got %q", preview.OriginalContent)
	}
	if preview.DiaryID == 0 {
		t.Fatal("expected an auto-created diary")
	}
	if preview.EntryDate.IsZero() {
		t.Fatal("expected entry_date in preview")
	}

	// First commit
	first := commit(t, router, accessToken, "Day one.", preview.DiaryID, preview.EntryDate)
	if first.Content != "Day one." {
		t.Errorf("expected content %q, got %q", "Day one.", first.Content)
	}

	// History
	req = httptest.NewRequest("GET", "/api/v1/entries/history", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp = serve(router, req)
	var history []models.Entry
	json.Unmarshal(resp.Body.Bytes(), &history)
	if len(history) != 1 || history[0].Content != "Day one." {
		t.Fatalf("history: expected one entry %q, got %+v", "Day one.", history)
	}

	// Second upload integrates into the existing entry
	buf.Reset()
	mw = multipart.NewWriter(&buf)
	fw, _ = mw.CreateFormFile("audio_file", "more.mp3")
	fw.Write([]byte("more mock audio"))
	mw.Close()
	req = httptest.NewRequest("POST", "/api/v1/entries/process_audio", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp = serve(router, req)
	var second models.Preview
	json.Unmarshal(resp.Body.Bytes(), &second)
	if second.OriginalContent != "Day one." || second.DiaryID != preview.DiaryID {
		t.Errorf("second preview: got %+v", second)
	}

	// Revised commit overwrites the same entry
	revised := commit(t, router, accessToken, "Day one, revised.", preview.DiaryID, preview.EntryDate)
	if revised.ID != first.ID {
		t.Errorf("expected entry %d to be updated, got new entry %d", first.ID, revised.ID)
	}

	req = httptest.NewRequest("GET", "/api/v1/entries/"+preview.EntryDate.String(), nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp = serve(router, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("by date: expected status OK, got %v", resp.Code)
	}
	var byDate []models.Entry
	json.Unmarshal(resp.Body.Bytes(), &byDate)
	if len(byDate) != 1 || byDate[0].Content != "Day one, revised." {
		t.Errorf("by date: expected one revised entry, got %+v", byDate)
	}

	// Diaries: exactly the auto-created one
	req = httptest.NewRequest("GET", "/api/v1/diaries", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp = serve(router, req)
	var diaries []models.Diary
	json.Unmarshal(resp.Body.Bytes(), &diaries)
	if len(diaries) != 1 || diaries[0].Name != "My Daily Reflections" {
		t.Errorf("diaries: got %+v", diaries)
	}

	// Reflection with the stub generator degrades to the fallback insight
	req = httptest.NewRequest("POST", "/api/v1/entries/reflect/"+strconv.FormatInt(first.ID, 10), nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp = serve(router, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("reflect: expected status OK, got %v", resp.Code)
	}
	if resp.Header().Get("X-Reflection-Fallback") != "true" {
		t.Errorf("reflect: expected fallback header")
	}
}

func TestCORSPreflight(t *testing.T) {
	router := setupIntegrationTest(t)

	req := httptest.NewRequest("OPTIONS", "/api/v1/entries/commit", nil)
	resp := serve(router, req)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected status OK, got %v", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Expected wildcard origin, got %q", resp.Header().Get("Access-Control-Allow-Origin"))
	}
}
