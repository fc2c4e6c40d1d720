package domain

import "context"

// UserStore is the external user-record store. Updates are last-write-wins;
// callers that need read-modify-write consistency must serialize themselves.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*UserRecord, error)
	UpdateUserMetadata(ctx context.Context, id string, metadata map[string]any) error
}
