package ports

import (
	"context"

	"github.com/google/uuid"
)

// UserInfo represents the minimal user data the leads domain needs when
// rendering activity timelines.
type UserInfo struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
}

// UserProvider resolves actor display data in batch. Unknown IDs are
// omitted from the result map.
type UserProvider interface {
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]UserInfo, error)
}
