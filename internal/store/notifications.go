package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/scrapline/scrapline/internal/model"
)

// InsertNotification stores a notification for a user.
func InsertNotification(ctx context.Context, db *sql.DB, userID int64, kind, message, ref string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, kind, message, ref) VALUES (?, ?, ?, ?)`,
		userID, kind, message, nullString(ref),
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first. With
// unreadOnly set, read notifications are filtered out.
func ListNotifications(ctx context.Context, db *sql.DB, userID int64, unreadOnly bool) ([]model.Notification, error) {
	query := `SELECT id, user_id, kind, message, ref, read_at, created_at
	          FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var ref sql.NullString
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Message, &ref, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		n.Ref = ref.String
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead marks one of a user's notifications as read.
func MarkNotificationRead(ctx context.Context, db *sql.DB, userID, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE notifications SET read_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ? AND read_at IS NULL`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead marks all of a user's notifications as read.
func MarkAllNotificationsRead(ctx context.Context, db *sql.DB, userID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE notifications SET read_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? AND read_at IS NULL`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}

// Notifier adapts notification inserts onto the ledger's write-only side
// channel. Failures are logged and swallowed so a broken sink never fails
// the operation that triggered it.
type Notifier struct {
	DB *sql.DB
}

func (n *Notifier) Notify(ctx context.Context, userID int64, kind, message, ref string) {
	if err := InsertNotification(ctx, n.DB, userID, kind, message, ref); err != nil {
		slog.Warn("dropping notification", "user", userID, "kind", kind, "error", err)
	}
}
