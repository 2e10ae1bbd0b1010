package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/logger"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/model"
)

// RoomRepository owns chat_rooms: one row per customer.
type RoomRepository struct {
	pool *pgxpool.Pool
}

func NewRoomRepository(pool *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

const roomColumns = `id, customer_id, customer_name, status, assigned_technician_id, last_message_at, created_at`

func scanRoom(row pgx.Row) (*model.ChatRoom, error) {
	c := &model.ChatRoom{}
	err := row.Scan(&c.ID, &c.CustomerID, &c.CustomerName, &c.Status, &c.AssignedTechnicianID, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new room. Returns ErrConflict if a room for the same
// customer already exists (racing first-contact requests).
func (r *RoomRepository) Create(ctx context.Context, c *model.ChatRoom) error {
	defer logger.DeferLogDuration("room.Create", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO chat_rooms (id, customer_id, customer_name, status, last_message_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (customer_id) DO NOTHING`,
		c.ID, c.CustomerID, c.CustomerName, c.Status, c.LastMessageAt, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("roomRepo.Create: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id string) (*model.ChatRoom, error) {
	defer logger.DeferLogDuration("room.GetByID", time.Now())()
	c, err := scanRoom(r.pool.QueryRow(ctx,
		`SELECT `+roomColumns+` FROM chat_rooms WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("roomRepo.GetByID: %w", err)
	}
	return c, nil
}

func (r *RoomRepository) GetByCustomerID(ctx context.Context, customerID string) (*model.ChatRoom, error) {
	defer logger.DeferLogDuration("room.GetByCustomerID", time.Now())()
	c, err := scanRoom(r.pool.QueryRow(ctx,
		`SELECT `+roomColumns+` FROM chat_rooms WHERE customer_id = $1`, customerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("roomRepo.GetByCustomerID: %w", err)
	}
	return c, nil
}

// GetOrCreate returns the customer's room, creating it on first contact;
// created reports which happened. Idempotent: a create lost to a concurrent
// request falls back to a fetch, so exactly one room results even under
// double-submit.
func (r *RoomRepository) GetOrCreate(ctx context.Context, customerID, displayName string) (room *model.ChatRoom, created bool, err error) {
	defer logger.DeferLogDuration("room.GetOrCreate", time.Now())()
	existing, err := r.GetByCustomerID(ctx, customerID)
	if err == nil {
		if existing.CustomerName == "" && displayName != "" {
			if err := r.refreshCustomerName(ctx, existing.ID, displayName); err != nil {
				logger.Errorf("roomRepo.GetOrCreate refresh name room=%s: %v", existing.ID, err)
			} else {
				existing.CustomerName = displayName
			}
		}
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	now := time.Now().UTC()
	c := &model.ChatRoom{
		ID:            uuid.New().String(),
		CustomerID:    customerID,
		CustomerName:  displayName,
		Status:        model.RoomStatusActive,
		LastMessageAt: now,
		CreatedAt:     now,
	}
	if err := r.Create(ctx, c); err != nil {
		if errors.Is(err, ErrConflict) {
			// The concurrent create won; return its room.
			room, err := r.GetByCustomerID(ctx, customerID)
			return room, false, err
		}
		return nil, false, err
	}
	return c, true, nil
}

// List returns rooms ordered by last_message_at descending plus the total
// count. page and pageSize start at 1; a page past the end yields an empty
// slice, not an error.
func (r *RoomRepository) List(ctx context.Context, page, pageSize int) ([]model.ChatRoom, int, error) {
	defer logger.DeferLogDuration("room.List", time.Now())()
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chat_rooms`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("roomRepo.List count: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+roomColumns+` FROM chat_rooms
		 ORDER BY last_message_at DESC, id
		 LIMIT $1 OFFSET $2`, pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("roomRepo.List query: %w", err)
	}
	defer rows.Close()

	list := make([]model.ChatRoom, 0, pageSize)
	for rows.Next() {
		var c model.ChatRoom
		if err := rows.Scan(&c.ID, &c.CustomerID, &c.CustomerName, &c.Status, &c.AssignedTechnicianID, &c.LastMessageAt, &c.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("roomRepo.List scan: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("roomRepo.List rows: %w", err)
	}
	return list, total, nil
}

// ListByStatus is the unpaginated filter view for dashboards.
func (r *RoomRepository) ListByStatus(ctx context.Context, status model.RoomStatus) ([]model.ChatRoom, error) {
	defer logger.DeferLogDuration("room.ListByStatus", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT `+roomColumns+` FROM chat_rooms WHERE status = $1
		 ORDER BY last_message_at DESC, id`, status,
	)
	if err != nil {
		return nil, fmt.Errorf("roomRepo.ListByStatus query: %w", err)
	}
	defer rows.Close()

	list := make([]model.ChatRoom, 0, 16)
	for rows.Next() {
		var c model.ChatRoom
		if err := rows.Scan(&c.ID, &c.CustomerID, &c.CustomerName, &c.Status, &c.AssignedTechnicianID, &c.LastMessageAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("roomRepo.ListByStatus scan: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roomRepo.ListByStatus rows: %w", err)
	}
	return list, nil
}

// SetStatus closes or reopens a room. Rooms are never hard-deleted.
func (r *RoomRepository) SetStatus(ctx context.Context, roomID string, status model.RoomStatus) error {
	defer logger.DeferLogDuration("room.SetStatus", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`UPDATE chat_rooms SET status = $1 WHERE id = $2`, status, roomID)
	if err != nil {
		return fmt.Errorf("roomRepo.SetStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignTechnician records the claiming technician for a room (claim pool
// policy). Only the first claim wins; later calls are no-ops.
func (r *RoomRepository) AssignTechnician(ctx context.Context, roomID, technicianID string) error {
	defer logger.DeferLogDuration("room.AssignTechnician", time.Now())()
	_, err := r.pool.Exec(ctx,
		`UPDATE chat_rooms SET assigned_technician_id = $1
		 WHERE id = $2 AND assigned_technician_id IS NULL`,
		technicianID, roomID,
	)
	if err != nil {
		return fmt.Errorf("roomRepo.AssignTechnician: %w", err)
	}
	return nil
}

func (r *RoomRepository) refreshCustomerName(ctx context.Context, roomID, name string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE chat_rooms SET customer_name = $1 WHERE id = $2 AND customer_name = ''`,
		name, roomID,
	)
	if err != nil {
		return fmt.Errorf("roomRepo.refreshCustomerName: %w", err)
	}
	return nil
}
