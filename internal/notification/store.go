// Package notification records messages to users and fans them out in the
// background. Notifying is fire-and-forget: a full buffer or a failed write
// never blocks or fails the operation that triggered it.
package notification

import (
	"context"

	"lifebridge/internal/domain"
)

type Store interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id, userID string) error
}
