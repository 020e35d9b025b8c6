package database

import (
	"context"
	"database/sql"
	"fmt"

	"tikflow-ledger-go/internal/models"
	"tikflow-ledger-go/internal/store"

	"go.uber.org/zap"
)

// GetNotificationsForUser returns the most recent notifications queued
// for a recipient.
func (s *Service) GetNotificationsForUser(ctx context.Context, userId string, limit int) ([]models.Notification, error) {
	rows, err := s.db.QueryContext(ctx, queryGetNotificationsForUser, userId, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		var read int
		err := rows.Scan(&n.Id, &n.UserId, &n.Title, &n.Message, &n.Type,
			&n.Link, &read, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Read = read != 0
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead flags a notification as read. The recipient id is
// part of the predicate so a user cannot touch another user's feed.
func (s *Service) MarkNotificationRead(ctx context.Context, id, userId string) error {
	result, err := s.db.ExecContext(ctx, queryMarkNotificationRead, id, userId)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: notification %s", store.ErrNotFound, id)
	}
	return nil
}
