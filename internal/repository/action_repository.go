package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"eshop/internal/models"
)

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ActionRepository appends to the user_actions table. Rows are never updated
// or deleted from here.
type ActionRepository struct {
	db queryRower
}

func NewActionRepository(db queryRower) *ActionRepository {
	return &ActionRepository{db: db}
}

func (r *ActionRepository) Append(ctx context.Context, entry models.ActionLogEntry) (int64, error) {
	const query = `
		INSERT INTO user_actions (user_id, action, timestamp)
		VALUES ($1, $2, COALESCE($3, NOW()))
		RETURNING id
	`

	var ts any
	if !entry.Timestamp.IsZero() {
		ts = entry.Timestamp
	}

	var id int64
	if err := r.db.QueryRow(ctx, query, entry.UserID, entry.Action, ts).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert user action: %w", err)
	}
	return id, nil
}
