package seniority

import (
	"context"
	"database/sql"
	"encoding/json"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Upsert inserts or replaces the profile for (member, dimension).
func (r *PGRepo) Upsert(ctx context.Context, p Profile) error {
	const query = `
INSERT INTO seniority_profiles (
    team_member_id,
    dimension_name,
    dimension_family,
    maturity_level,
    supporting_metrics,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (team_member_id, dimension_name) DO UPDATE SET
    dimension_family = EXCLUDED.dimension_family,
    maturity_level = EXCLUDED.maturity_level,
    supporting_metrics = EXCLUDED.supporting_metrics,
    updated_at = EXCLUDED.updated_at`

	metrics, err := json.Marshal(p.SupportingMetrics)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(
		ctx,
		query,
		p.TeamMemberID,
		p.DimensionName,
		string(p.DimensionFamily),
		string(p.MaturityLevel),
		string(metrics),
		p.UpdatedAt,
	)
	return err
}

// DeleteAll removes every profile.
func (r *PGRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM seniority_profiles`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
