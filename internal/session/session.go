// Package session holds the per-user staged purchase awaiting confirmation.
// At most one entry per user; a new buy intent overwrites the old one. Take
// is a single atomic read-and-clear — that atomicity is what guarantees
// at-most-one order creation per staged intent when confirm callbacks race.
package session

import (
	"context"
	"time"

	"gamekey-bot/internal/market"
)

type Entry struct {
	Product  market.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

type Store interface {
	Stage(ctx context.Context, userID int64, e Entry) error
	// Take returns the staged entry and clears it. ok is false when nothing
	// is staged (expired, already confirmed, or never staged).
	Take(ctx context.Context, userID int64) (Entry, bool, error)
}

// Staged intents are short-lived and user-initiated; losing them on expiry
// just means the user re-issues the buy command.
var TTLPending = 10 * time.Minute
