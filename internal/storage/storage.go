// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"tennis_bot/internal/model"
)

// Storage is the interface for all persistence operations.
//
// Per-day arguments are chat-local calendar dates in model.DayLayout
// form. Mutations are single-statement operations relying on the
// store's native atomicity; no call spans a multi-chat transaction.
type Storage interface {
	EnsureChat(ctx context.Context, chatID int64, defaultTZ string) error
	GetTimezone(ctx context.Context, chatID int64, defaultTZ string) (string, error)
	SetTimezone(ctx context.Context, chatID int64, tz string) error
	ListChatIDs(ctx context.Context) ([]int64, error)

	AddWatch(ctx context.Context, chatID int64, label, source, day string) error
	RemoveWatch(ctx context.Context, chatID int64, label, day string) (bool, error)
	ListWatches(ctx context.Context, chatID int64, day string) ([]model.WatchEntry, error)
	ClearWatches(ctx context.Context, chatID int64, day string) (int64, error)

	GetAlias(ctx context.Context, nameEN string) (localized string, known bool, err error)
	FindAliasEnglish(ctx context.Context, localized string) (nameEN string, found bool, err error)
	SetAlias(ctx context.Context, nameEN, localized string) error

	SetPendingAlias(ctx context.Context, chatID int64, nameEN string) error
	ConsumePendingAlias(ctx context.Context, chatID int64) (nameEN string, found bool, err error)

	GetEventsCache(ctx context.Context, day string) (payload []byte, found bool, err error)
	SetEventsCache(ctx context.Context, day string, payload []byte) error

	MarkNotified(ctx context.Context, chatID int64, provider, eventID, day string) error
	WasNotified(ctx context.Context, chatID int64, provider, eventID, day string) (bool, error)

	Close() error
}
