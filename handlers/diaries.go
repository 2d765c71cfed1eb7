package handlers

import "net/http"

type diaryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) ListDiaries(w http.ResponseWriter, r *http.Request) {
	diaries, err := h.journal.Diaries(r.Context(), currentUser(r).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, diaries)
}

func (h *Handler) CreateDiary(w http.ResponseWriter, r *http.Request) {
	var req diaryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	diary, err := h.journal.CreateDiary(r.Context(), currentUser(r).ID, req.Name, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, diary)
}
