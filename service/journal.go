package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"vociary/ai"
	"vociary/archive"
	"vociary/db"
	"vociary/errs"
	"vociary/models"
)

const (
	DefaultDiaryName        = "My Daily Reflections"
	DefaultDiaryDescription = "The primary diary for daily voice entries."

	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// Journal sequences transcription, entry lookup, generation and persistence.
type Journal struct {
	store       *db.Store
	transcriber ai.Transcriber
	assistant   *ai.Assistant
	archive     archive.Archive
	log         *zap.Logger
}

func NewJournal(store *db.Store, transcriber ai.Transcriber, gen ai.Generator, arc archive.Archive, log *zap.Logger) *Journal {
	if arc == nil {
		arc = archive.Discard{}
	}
	return &Journal{
		store:       store,
		transcriber: transcriber,
		assistant:   ai.NewAssistant(gen),
		archive:     arc,
		log:         log,
	}
}

// ProcessAudio transcribes a recording and proposes the entry body for today.
// It never writes an entry; only the default diary may be created.
func (j *Journal) ProcessAudio(ctx context.Context, userID int64, audio models.Audio, today models.Date) (*models.Preview, error) {
	if len(audio.Data) == 0 {
		return nil, fmt.Errorf("%w: audio file is empty", errs.ErrValidation)
	}

	if key, err := j.archive.Put(ctx, userID, today, audio); err != nil {
		j.log.Warn("archiving recording failed", zap.Int64("user_id", userID), zap.Error(err))
	} else if key != "" {
		j.log.Debug("recording archived", zap.Int64("user_id", userID), zap.String("key", key))
	}

	transcript, err := j.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("%w: transcription failed: %w", errs.ErrUpstream, err)
	}

	existing, err := j.store.FirstEntryOnDate(ctx, userID, today)
	switch {
	case err == nil:
		updated, err := j.assistant.IntegrateContent(ctx, existing.Content, transcript)
		if err != nil {
			return nil, fmt.Errorf("%w: generation failed: %w", errs.ErrUpstream, err)
		}
		return &models.Preview{
			OriginalContent:       existing.Content,
			UpdatedPreviewContent: updated,
			EntryDate:             today,
			DiaryID:               existing.DiaryID,
		}, nil
	case !errors.Is(err, errs.ErrNotFound):
		return nil, err
	}

	draft, err := j.assistant.DraftEntry(ctx, transcript)
	if err != nil {
		return nil, fmt.Errorf("%w: generation failed: %w", errs.ErrUpstream, err)
	}
	diary, err := j.defaultDiary(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Preview{
		OriginalContent:       "",
		UpdatedPreviewContent: draft,
		EntryDate:             today,
		DiaryID:               diary.ID,
	}, nil
}

// defaultDiary returns the user's first diary, creating the default one if the user has none.
func (j *Journal) defaultDiary(ctx context.Context, userID int64) (*models.Diary, error) {
	var diary *models.Diary
	err := j.store.WithTx(ctx, func(q *db.Queries) error {
		// Concurrent first uploads would otherwise both see no diary and both insert one.
		if err := q.LockUser(ctx, userID); err != nil {
			return err
		}
		diaries, err := q.ListDiaries(ctx, userID)
		if err != nil {
			return err
		}
		if len(diaries) > 0 {
			diary = &diaries[0]
			return nil
		}
		desc := DefaultDiaryDescription
		diary, err = q.CreateDiary(ctx, userID, DefaultDiaryName, &desc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return diary, nil
}

// Commit creates or overwrites the entry for (user, date, diary) in one transaction.
// A concurrent first commit for the same key loses with errs.ErrConflict.
func (j *Journal) Commit(ctx context.Context, userID, diaryID int64, date models.Date, content string) (*models.Entry, error) {
	switch {
	case strings.TrimSpace(content) == "":
		return nil, fmt.Errorf("%w: content is required", errs.ErrValidation)
	case diaryID <= 0:
		return nil, fmt.Errorf("%w: diary_id is required", errs.ErrValidation)
	case date.IsZero():
		return nil, fmt.Errorf("%w: entry_date is required", errs.ErrValidation)
	}

	var entry *models.Entry
	err := j.store.WithTx(ctx, func(q *db.Queries) error {
		if _, err := q.GetDiary(ctx, userID, diaryID); err != nil {
			return err
		}
		existing, err := q.GetEntryByKey(ctx, userID, date, diaryID)
		switch {
		case err == nil:
			entry, err = q.UpdateEntryContent(ctx, existing.ID, content)
			return err
		case errors.Is(err, errs.ErrNotFound):
			entry, err = q.CreateEntry(ctx, userID, diaryID, date, content)
			return err
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	j.log.Info("entry committed",
		zap.Int64("user_id", userID), zap.Int64("entry_id", entry.ID), zap.Stringer("entry_date", date))
	return entry, nil
}

// Refine applies an editing instruction to the selected text. Nothing is persisted.
func (j *Journal) Refine(ctx context.Context, current, selected, instruction string) (string, error) {
	if strings.TrimSpace(current) == "" || strings.TrimSpace(instruction) == "" {
		return "", fmt.Errorf("%w: current_content and user_instruction are required", errs.ErrValidation)
	}
	out, err := j.assistant.Refine(ctx, current, selected, instruction)
	if err != nil {
		return "", fmt.Errorf("%w: refinement failed: %w", errs.ErrUpstream, err)
	}
	return out, nil
}

// Reflect derives insight for one of the user's entries. Unusable model
// output is reported through Insight.Fallback, not as an error.
func (j *Journal) Reflect(ctx context.Context, entryID, userID int64) (models.Insight, error) {
	entry, err := j.store.GetEntry(ctx, entryID)
	if err != nil {
		return models.Insight{}, err
	}
	if entry.UserID != userID {
		return models.Insight{}, errs.ErrForbidden
	}
	insight, err := j.assistant.Reflect(ctx, entry.Content)
	if err != nil {
		return models.Insight{}, fmt.Errorf("%w: failed to generate insights: %w", errs.ErrUpstream, err)
	}
	if insight.Fallback {
		j.log.Warn("reflection output unusable, returning fallback", zap.Int64("entry_id", entryID))
	}
	return insight, nil
}

func (j *Journal) EntriesByDate(ctx context.Context, userID int64, date models.Date) ([]models.Entry, error) {
	return j.store.ListEntriesByDate(ctx, userID, date)
}

// History pages through the user's entries, newest date first. limit is capped at MaxHistoryLimit.
func (j *Journal) History(ctx context.Context, userID int64, skip, limit int) ([]models.Entry, error) {
	if skip < 0 || limit < 1 {
		return nil, fmt.Errorf("%w: skip must be >= 0 and limit >= 1", errs.ErrValidation)
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return j.store.ListRecentEntries(ctx, userID, skip, limit)
}

func (j *Journal) Diaries(ctx context.Context, userID int64) ([]models.Diary, error) {
	return j.store.ListDiaries(ctx, userID)
}

func (j *Journal) CreateDiary(ctx context.Context, userID int64, name string, description *string) (*models.Diary, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 255 {
		return nil, fmt.Errorf("%w: name must be 1-255 characters", errs.ErrValidation)
	}
	return j.store.CreateDiary(ctx, userID, name, description)
}
