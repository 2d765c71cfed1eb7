// Package archive keeps a copy of uploaded recordings in S3-compatible storage.
package archive

import (
	"context"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"lukechampine.com/blake3"

	"vociary/models"
)

// Archive stores a recording and returns the key it was stored under.
type Archive interface {
	Put(ctx context.Context, userID int64, day models.Date, audio models.Audio) (string, error)
}

// Discard is used when no bucket is configured.
type Discard struct{}

func (Discard) Put(context.Context, int64, models.Date, models.Audio) (string, error) {
	return "", nil
}

// Key addresses a recording by owner, day and content hash, so re-uploads overwrite.
func Key(userID int64, day models.Date, audio models.Audio) string {
	sum := blake3.Sum256(audio.Data)
	ext := strings.ToLower(path.Ext(audio.Filename))
	return fmt.Sprintf("users/%d/%s/%s%s", userID, day, hex.EncodeToString(sum[:]), ext)
}
