package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appmw "vociary/middleware"
	"vociary/models"
	"vociary/service"
)

const multipartMemory = 32 << 20

func currentUser(r *http.Request) *models.User {
	u, _ := appmw.UserFromContext(r.Context())
	return u
}

// ProcessAudio accepts a multipart upload in field audio_file and returns a preview.
func (h *Handler) ProcessAudio(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	// The extra megabyte leaves room for multipart framing around the file.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxAudioBytes+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "audio file too large")
			return
		}
		writeDetail(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("audio_file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "audio_file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxAudioBytes+1))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if int64(len(data)) > h.maxAudioBytes {
		writeDetail(w, http.StatusRequestEntityTooLarge, "audio file too large")
		return
	}

	audio := models.Audio{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	preview, err := h.journal.ProcessAudio(r.Context(), user.ID, audio, models.DateOf(h.now()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

type commitRequest struct {
	Content   string      `json:"content"`
	DiaryID   int64       `json:"diary_id"`
	EntryDate models.Date `json:"entry_date"`
}

func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	entry, err := h.journal.Commit(r.Context(), currentUser(r).ID, req.DiaryID, req.EntryDate, req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type refineRequest struct {
	CurrentContent  string `json:"current_content"`
	SelectedText    string `json:"selected_text"`
	UserInstruction string `json:"user_instruction"`
}

func (h *Handler) Refine(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.journal.Refine(r.Context(), req.CurrentContent, req.SelectedText, req.UserInstruction)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"updated_content": updated})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip", 0)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "skip must be an integer")
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultHistoryLimit)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	entries, err := h.journal.History(r.Context(), currentUser(r).ID, skip, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) EntriesByDate(w http.ResponseWriter, r *http.Request) {
	date, err := models.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	entries, err := h.journal.EntriesByDate(r.Context(), currentUser(r).ID, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Reflect sets X-Reflection-Fallback when the model output could not be used.
func (h *Handler) Reflect(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "entry_id must be an integer")
		return
	}

	insight, err := h.journal.Reflect(r.Context(), entryID, currentUser(r).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if insight.Fallback {
		w.Header().Set(fallbackHeader, "true")
	}
	writeJSON(w, http.StatusOK, insight)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
