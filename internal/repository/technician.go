package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/logger"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/model"
)

// TechnicianRepository is the support-pool directory.
type TechnicianRepository struct {
	pool *pgxpool.Pool
}

func NewTechnicianRepository(pool *pgxpool.Pool) *TechnicianRepository {
	return &TechnicianRepository{pool: pool}
}

// Upsert inserts a technician or refreshes name/email for an existing id.
func (r *TechnicianRepository) Upsert(ctx context.Context, t *model.Technician) error {
	defer logger.DeferLogDuration("tech.Upsert", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO technicians (id, name, email, active, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email`,
		t.ID, t.Name, t.Email, t.Active, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("techRepo.Upsert: %w", err)
	}
	return nil
}

func (r *TechnicianRepository) GetByID(ctx context.Context, id string) (*model.Technician, error) {
	defer logger.DeferLogDuration("tech.GetByID", time.Now())()
	t := &model.Technician{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, active, created_at FROM technicians WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Email, &t.Active, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("techRepo.GetByID: %w", err)
	}
	return t, nil
}

func (r *TechnicianRepository) List(ctx context.Context) ([]model.Technician, error) {
	defer logger.DeferLogDuration("tech.List", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, active, created_at FROM technicians ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("techRepo.List query: %w", err)
	}
	defer rows.Close()

	list := make([]model.Technician, 0, 8)
	for rows.Next() {
		var t model.Technician
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Active, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("techRepo.List scan: %w", err)
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("techRepo.List rows: %w", err)
	}
	return list, nil
}

// ActiveIDs returns the ids of technicians eligible for notification
// fan-out (the broadcast pool).
func (r *TechnicianRepository) ActiveIDs(ctx context.Context) ([]string, error) {
	defer logger.DeferLogDuration("tech.ActiveIDs", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM technicians WHERE active = TRUE ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("techRepo.ActiveIDs query: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0, 8)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("techRepo.ActiveIDs scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("techRepo.ActiveIDs rows: %w", err)
	}
	return ids, nil
}

func (r *TechnicianRepository) SetActive(ctx context.Context, id string, active bool) error {
	defer logger.DeferLogDuration("tech.SetActive", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`UPDATE technicians SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("techRepo.SetActive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
