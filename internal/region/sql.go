package region

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLTable reads and (for the ingest job) rewrites the regional_risk table.
type SQLTable struct {
	db *sqlx.DB
}

func NewSQLTable(db *sqlx.DB) *SQLTable {
	return &SQLTable{db: db}
}

func (t *SQLTable) ByPincode(ctx context.Context, pincode string) (Record, bool, error) {
	var r Record
	err := t.db.GetContext(ctx, &r,
		`SELECT pincode, district, risk_score, state FROM regional_risk WHERE pincode=? LIMIT 1`, pincode)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("region: pincode lookup: %w", err)
	}
	return r, true, nil
}

func (t *SQLTable) DistrictRisk(ctx context.Context, district string) (int, bool, error) {
	var score sql.NullInt64
	err := t.db.GetContext(ctx, &score,
		`SELECT MAX(risk_score) FROM regional_risk WHERE UPPER(TRIM(district))=?`, normalizeDistrict(district))
	if err != nil {
		return 0, false, fmt.Errorf("region: district lookup: %w", err)
	}
	if !score.Valid {
		return 0, false, nil
	}
	return int(score.Int64), true, nil
}

func (t *SQLTable) Districts(ctx context.Context) ([]string, error) {
	var out []string
	if err := t.db.SelectContext(ctx, &out,
		`SELECT DISTINCT UPPER(TRIM(district)) FROM regional_risk WHERE district <> ''`); err != nil {
		return nil, fmt.Errorf("region: list districts: %w", err)
	}
	return out, nil
}

// Replace rewrites the whole table in one transaction.
func (t *SQLTable) Replace(ctx context.Context, rows []Record) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("region: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM regional_risk`); err != nil {
		return fmt.Errorf("region: clear: %w", err)
	}

	const batch = 500
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO regional_risk (pincode, district, risk_score, state)
			 VALUES (:pincode, :district, :risk_score, :state)`, rows[start:end]); err != nil {
			return fmt.Errorf("region: insert rows %d-%d: %w", start, end, err)
		}
	}
	return tx.Commit()
}
