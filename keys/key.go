// Package keys defines the one-time access key entity and the store
// contract shared by all storage drivers.
package keys

// OneTimeKey is a single issued access key. The remote store is the sole
// authority over these records; the bot only appends and reads them.
type OneTimeKey struct {
	Key    string `json:"key" db:"key"`
	Used   bool   `json:"used" db:"used"`
	UserID string `json:"user_id" db:"user_id"`
}
