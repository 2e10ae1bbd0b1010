package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/logger"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/model"
)

// MessageRepository owns the append-only per-room message log.
type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

const messageColumns = `id, chat_room_id, sender_role, sender_id, body, read_by_customer, read_by_technician_id, created_at`

// Append inserts a message and bumps the room's last_message_at in one
// transaction. The room row is locked first, which serializes concurrent
// appends to the same room and preserves insertion order. Returns
// ErrNotFound if the room does not exist and ErrInvalidArgument for an
// empty body.
func (r *MessageRepository) Append(ctx context.Context, m *model.Message) error {
	defer logger.DeferLogDuration("msg.Append", time.Now())()
	if strings.TrimSpace(m.Body) == "" {
		return fmt.Errorf("msgRepo.Append: %w", ErrInvalidArgument)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("msgRepo.Append begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var roomID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM chat_rooms WHERE id = $1 FOR UPDATE`, m.ChatRoomID,
	).Scan(&roomID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("msgRepo.Append lock room: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO chat_messages (id, chat_room_id, sender_role, sender_id, body, read_by_customer, read_by_technician_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.ChatRoomID, m.SenderRole, m.SenderID, m.Body, m.ReadByCustomer, m.ReadByTechnicianID, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("msgRepo.Append insert: %w", err)
	}

	// GREATEST keeps last_message_at monotonically non-decreasing.
	_, err = tx.Exec(ctx,
		`UPDATE chat_rooms SET last_message_at = GREATEST(last_message_at, $1) WHERE id = $2`,
		m.CreatedAt, m.ChatRoomID,
	)
	if err != nil {
		return fmt.Errorf("msgRepo.Append touch room: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("msgRepo.Append commit: %w", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (*model.Message, error) {
	defer logger.DeferLogDuration("msg.GetByID", time.Now())()
	m := &model.Message{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM chat_messages WHERE id = $1`, id,
	).Scan(&m.ID, &m.ChatRoomID, &m.SenderRole, &m.SenderID, &m.Body, &m.ReadByCustomer, &m.ReadByTechnicianID, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("msgRepo.GetByID: %w", err)
	}
	return m, nil
}

// ListByRoom returns the room log in insertion order (created_at, id).
func (r *MessageRepository) ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]model.Message, error) {
	defer logger.DeferLogDuration("msg.ListByRoom", time.Now())()
	if limit < 1 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+messageColumns+` FROM chat_messages
		 WHERE chat_room_id = $1
		 ORDER BY created_at, id
		 LIMIT $2 OFFSET $3`, roomID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("msgRepo.ListByRoom query: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0, limit)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ChatRoomID, &m.SenderRole, &m.SenderID, &m.Body, &m.ReadByCustomer, &m.ReadByTechnicianID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("msgRepo.ListByRoom scan: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("msgRepo.ListByRoom rows: %w", err)
	}
	return messages, nil
}

// GetLastMessage returns the newest message of a room, or nil if the room
// has none.
func (r *MessageRepository) GetLastMessage(ctx context.Context, roomID string) (*model.Message, error) {
	defer logger.DeferLogDuration("msg.GetLastMessage", time.Now())()
	m := &model.Message{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+messageColumns+` FROM chat_messages
		 WHERE chat_room_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`, roomID,
	).Scan(&m.ID, &m.ChatRoomID, &m.SenderRole, &m.SenderID, &m.Body, &m.ReadByCustomer, &m.ReadByTechnicianID, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("msgRepo.GetLastMessage: %w", err)
	}
	return m, nil
}

// Delete hard-removes a message. Returns false if it did not exist (not an
// error). Ledger counters referencing an unread deleted message are allowed
// to drift by one; recompute reconciles them out-of-band.
func (r *MessageRepository) Delete(ctx context.Context, id string) (bool, error) {
	defer logger.DeferLogDuration("msg.Delete", time.Now())()
	tag, err := r.pool.Exec(ctx, `DELETE FROM chat_messages WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("msgRepo.Delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkReadByCustomer flips every unread technician-authored message of the
// room and returns how many were flipped.
func (r *MessageRepository) MarkReadByCustomer(ctx context.Context, roomID string) (int, error) {
	defer logger.DeferLogDuration("msg.MarkReadByCustomer", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`UPDATE chat_messages SET read_by_customer = TRUE
		 WHERE chat_room_id = $1 AND sender_role = $2 AND read_by_customer = FALSE`,
		roomID, model.RoleTechnician,
	)
	if err != nil {
		return 0, fmt.Errorf("msgRepo.MarkReadByCustomer: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// MarkReadByTechnician acknowledges every unread customer-authored message
// of the room on behalf of technicianID and returns how many were flipped.
// The first technician to read marks the message read for the whole pool.
func (r *MessageRepository) MarkReadByTechnician(ctx context.Context, roomID, technicianID string) (int, error) {
	defer logger.DeferLogDuration("msg.MarkReadByTechnician", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`UPDATE chat_messages SET read_by_technician_id = $1
		 WHERE chat_room_id = $2 AND sender_role = $3 AND read_by_technician_id IS NULL`,
		technicianID, roomID, model.RoleCustomer,
	)
	if err != nil {
		return 0, fmt.Errorf("msgRepo.MarkReadByTechnician: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CountUnreadForRoom counts customer-authored messages no technician has
// acknowledged yet. Feeds the out-of-band ledger recompute.
func (r *MessageRepository) CountUnreadForRoom(ctx context.Context, roomID string) (int, error) {
	defer logger.DeferLogDuration("msg.CountUnreadForRoom", time.Now())()
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM chat_messages
		 WHERE chat_room_id = $1 AND sender_role = $2 AND read_by_technician_id IS NULL`,
		roomID, model.RoleCustomer,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("msgRepo.CountUnreadForRoom: %w", err)
	}
	return count, nil
}
