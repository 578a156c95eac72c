// Package memory keeps small per-user JSON documents between conversations.
package memory

import (
	"context"
	"errors"
	"strings"
)

const DefaultTable = "AgenicUserMemory"

var (
	ErrNotFound    = errors.New("memory not found")
	ErrEmptyUserID = errors.New("user id is required")
)

// Data is one user's memory document.
type Data map[string]any

// Store persists one Data document per user. Save replaces the previous
// document.
type Store interface {
	Save(ctx context.Context, userID string, data Data) error
	Load(ctx context.Context, userID string) (Data, error)
}

func checkUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrEmptyUserID
	}
	return nil
}
