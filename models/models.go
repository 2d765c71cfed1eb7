package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Diary struct {
	ID          int64   `json:"id"`
	OwnerID     int64   `json:"owner_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Entry is one dated document; (UserID, EntryDate, DiaryID) is unique.
type Entry struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	DiaryID   int64  `json:"diary_id"`
	EntryDate Date   `json:"entry_date"`
	UserID    int64  `json:"user_id"`
}

// Preview is an unsaved entry body proposed for confirmation before commit.
type Preview struct {
	OriginalContent       string `json:"original_content"`
	UpdatedPreviewContent string `json:"updated_preview_content"`
	EntryDate             Date   `json:"entry_date"`
	DiaryID               int64  `json:"diary_id"`
}

// Insight is the structured reflection derived from an entry.
// Fallback is set when the model output could not be used.
type Insight struct {
	MoodScore  int      `json:"mood_score"`
	MoodEmoji  string   `json:"mood_emoji"`
	Takeaways  []string `json:"takeaways"`
	ActionItem string   `json:"action_item"`
	Fallback   bool     `json:"-"`
}

// Audio is an uploaded recording held in memory.
type Audio struct {
	Filename    string
	ContentType string
	Data        []byte
}
