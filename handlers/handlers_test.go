package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"vociary/errs"
)

func TestWriteError(t *testing.T) {
	h := &Handler{log: zap.NewNop()}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"Concurrent first commit", fmt.Errorf("create entry: %w", errs.ErrConflict), http.StatusConflict, "Entry was created concurrently, retry the request"},
		{"Validation", fmt.Errorf("%w: content is required", errs.ErrValidation), http.StatusBadRequest, "validation error: content is required"},
		{"Duplicate account", errs.ErrAlreadyExists, http.StatusBadRequest, "Email or username already registered"},
		{"Bad credentials", errs.ErrUnauthorized, http.StatusUnauthorized, "Incorrect username or password"},
		{"Foreign entry", errs.ErrForbidden, http.StatusForbidden, "Not authorized to access this resource"},
		{"Missing entry", errs.ErrNotFound, http.StatusNotFound, "Not found"},
		{"Unclassified", errors.New("disk full"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.writeError(rr, httptest.NewRequest("POST", apiPrefix+"/entries/commit", nil), tc.err)

			if rr.Code != tc.wantStatus {
				t.Errorf("status: got %v want %v", rr.Code, tc.wantStatus)
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %s", rr.Body.String())
			}
			if body["detail"] != tc.wantDetail {
				t.Errorf("detail: got %q want %q", body["detail"], tc.wantDetail)
			}
			wantChallenge := ""
			if tc.wantStatus == http.StatusUnauthorized {
				wantChallenge = "Bearer"
			}
			if got := rr.Header().Get("WWW-Authenticate"); got != wantChallenge {
				t.Errorf("WWW-Authenticate: got %q want %q", got, wantChallenge)
			}
		})
	}
}
