package keys

import "context"

// Store persists one-time keys. Implementations must be safe for
// concurrent use; the bot handles overlapping updates on one process.
//
// HasActiveKey followed by Insert is not atomic. Two near-simultaneous
// calls for the same user can both observe "no active key" and both
// insert. The window is accepted; see /getkey handling.
type Store interface {
	// Insert appends a new unused key record for the user.
	Insert(ctx context.Context, key, userID string) error

	// HasActiveKey reports whether the user holds at least one unused key.
	HasActiveKey(ctx context.Context, userID string) (bool, error)

	// Count returns the total number of key records, or only unused ones
	// when unusedOnly is set.
	Count(ctx context.Context, unusedOnly bool) (int, error)
}
