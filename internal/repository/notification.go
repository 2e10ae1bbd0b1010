package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/logger"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/model"
)

// NotificationRepository owns the per-(technician, room) unread counters.
// Every mutation is a single atomic SQL statement, so increments and resets
// on the same key are linearizable without read-modify-write in Go.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// IncrementForMessage bumps the (technician, room) counter for a new
// customer message. Idempotent per message: the delivery row is the
// dedupe key, so an at-least-once retry after a partial failure never
// double-counts. Returns false when this delivery was already recorded.
func (r *NotificationRepository) IncrementForMessage(ctx context.Context, technicianID, roomID, messageID string) (bool, error) {
	defer logger.DeferLogDuration("notif.IncrementForMessage", time.Now())()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("notifRepo.IncrementForMessage begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO notification_deliveries (message_id, technician_id)
		 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		messageID, technicianID,
	)
	if err != nil {
		return false, fmt.Errorf("notifRepo.IncrementForMessage delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO notifications (technician_id, chat_room_id, unread_count, updated_at)
		 VALUES ($1, $2, 1, NOW())
		 ON CONFLICT (technician_id, chat_room_id)
		 DO UPDATE SET unread_count = notifications.unread_count + 1, updated_at = NOW()`,
		technicianID, roomID,
	)
	if err != nil {
		return false, fmt.Errorf("notifRepo.IncrementForMessage upsert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("notifRepo.IncrementForMessage commit: %w", err)
	}
	return true, nil
}

// Reset zeroes the counter for one (technician, room) pair. The reset is
// authoritative even if it diverges from the literal message count.
func (r *NotificationRepository) Reset(ctx context.Context, technicianID, roomID string) error {
	defer logger.DeferLogDuration("notif.Reset", time.Now())()
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET unread_count = 0, updated_at = NOW()
		 WHERE technician_id = $1 AND chat_room_id = $2`,
		technicianID, roomID,
	)
	if err != nil {
		return fmt.Errorf("notifRepo.Reset: %w", err)
	}
	return nil
}

// ListForTechnician returns entries with unread messages, newest activity
// first, joined with the room's customer name for the dashboard feed.
func (r *NotificationRepository) ListForTechnician(ctx context.Context, technicianID string) ([]model.NotificationEntry, error) {
	defer logger.DeferLogDuration("notif.ListForTechnician", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT n.technician_id, n.chat_room_id, c.customer_name, n.unread_count, n.updated_at
		 FROM notifications n
		 JOIN chat_rooms c ON c.id = n.chat_room_id
		 WHERE n.technician_id = $1 AND n.unread_count > 0
		 ORDER BY n.updated_at DESC, n.chat_room_id`, technicianID,
	)
	if err != nil {
		return nil, fmt.Errorf("notifRepo.ListForTechnician query: %w", err)
	}
	defer rows.Close()

	entries := make([]model.NotificationEntry, 0, 16)
	for rows.Next() {
		var e model.NotificationEntry
		if err := rows.Scan(&e.TechnicianID, &e.ChatRoomID, &e.CustomerName, &e.UnreadCount, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("notifRepo.ListForTechnician scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notifRepo.ListForTechnician rows: %w", err)
	}
	return entries, nil
}

// TotalUnread returns the technician's badge count across all rooms.
func (r *NotificationRepository) TotalUnread(ctx context.Context, technicianID string) (int, error) {
	defer logger.DeferLogDuration("notif.TotalUnread", time.Now())()
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(unread_count), 0) FROM notifications WHERE technician_id = $1`,
		technicianID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("notifRepo.TotalUnread: %w", err)
	}
	return total, nil
}

// ResetAll zeroes every entry of one technician and returns how many had a
// nonzero count before the reset (for the UI confirmation).
func (r *NotificationRepository) ResetAll(ctx context.Context, technicianID string) (int, error) {
	defer logger.DeferLogDuration("notif.ResetAll", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET unread_count = 0, updated_at = NOW()
		 WHERE technician_id = $1 AND unread_count > 0`,
		technicianID,
	)
	if err != nil {
		return 0, fmt.Errorf("notifRepo.ResetAll: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// SetCount overwrites a counter with a recomputed value (maintenance path,
// never on the hot path). Negative values are clamped to zero.
func (r *NotificationRepository) SetCount(ctx context.Context, technicianID, roomID string, count int) error {
	defer logger.DeferLogDuration("notif.SetCount", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notifications (technician_id, chat_room_id, unread_count, updated_at)
		 VALUES ($1, $2, GREATEST($3, 0), NOW())
		 ON CONFLICT (technician_id, chat_room_id)
		 DO UPDATE SET unread_count = GREATEST($3, 0), updated_at = NOW()`,
		technicianID, roomID, count,
	)
	if err != nil {
		return fmt.Errorf("notifRepo.SetCount: %w", err)
	}
	return nil
}
