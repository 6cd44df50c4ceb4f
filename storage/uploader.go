package storage

import (
	"context"
	"fmt"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader abstracts the object store holding player avatars and
// tournament logos.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// AvatarKey builds the canonical object key for a player's avatar.
func AvatarKey(playerID int, ext string) string {
	return fmt.Sprintf("avatars/%d%s", playerID, ext)
}

// LogoKey builds the canonical object key for a tournament logo.
func LogoKey(tournamentID int, ext string) string {
	return fmt.Sprintf("logos/%d%s", tournamentID, ext)
}
