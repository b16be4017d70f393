package highlights

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Insert stores a new record.
func (r *PGRepo) Insert(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO highlights (
    id,
    team_member_id,
    kind,
    comment_type,
    comment_id,
    text,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		rec.ID.String(),
		rec.TeamMemberID,
		string(rec.Kind),
		string(rec.CommentType),
		rec.CommentID,
		rec.Text,
		rec.CreatedAt,
	)
	return err
}

// DeleteAllByType removes every record of kind and reports how many were removed.
func (r *PGRepo) DeleteAllByType(ctx context.Context, kind Kind) (int64, error) {
	const query = `DELETE FROM highlights WHERE kind = $1`
	res, err := r.DB.ExecContext(ctx, query, string(kind))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
