// Package board holds the Board and BoardInfo aggregates and the board-key
// validation rule shared by the read and write paths.
package board

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidBoardKey is returned by Validate for a malformed board key.
var ErrInvalidBoardKey = errors.New("board: invalid board key")

// Board is the top-level bulletin-board identity.
type Board struct {
	ID          uuid.UUID
	Name        string
	BoardKey    string
	DefaultName string
}

// Info carries the per-board write policy consulted by the post pipeline's
// content-validation step.
type Info struct {
	ID                                uuid.UUID
	LocalRules                        string
	BaseThreadCreationSpanSec         int
	BaseResponseCreationSpanSec       int
	MaxThreadNameByteLength           int
	MaxAuthorNameByteLength           int
	MaxEmailByteLength                int
	MaxResponseBodyByteLength         int
	MaxResponseBodyLines              int
	ThreadsArchiveCron                string
	ThreadsArchiveTriggerThreadCount  int
	CreatedAt                         time.Time
	UpdatedAt                         time.Time
	ReadOnly                          bool
}

// ValidateKey reports whether key is a legal board key: lowercase ASCII
// letters and digits only, fewer than 64 bytes.
func ValidateKey(key string) error {
	if len(key) >= 64 {
		return ErrInvalidBoardKey
	}
	for _, c := range key {
		if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			return ErrInvalidBoardKey
		}
	}
	return nil
}
