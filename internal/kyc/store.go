package kyc

import (
	"context"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"

	"github.com/emandor/kyc_service/internal/model"
)

// Store persists verification summaries and answers dashboard queries.
type Store interface {
	Save(ctx context.Context, rec model.KYCRecord) error
	History(ctx context.Context, limit int) ([]model.KYCRecord, error)
	Stats(ctx context.Context) (model.KYCStats, error)
}

type RecordStore struct {
	db *sqlx.DB
}

func NewRecordStore(db *sqlx.DB) *RecordStore {
	return &RecordStore{db: db}
}

func (s *RecordStore) Save(ctx context.Context, rec model.KYCRecord) error {
	_, err := s.db.NamedExecContext(ctx, `
  INSERT INTO kyc_records
    (request_id, name, id_number, match_score, decision, created_at)
  VALUES
    (:request_id, :name, :id_number, :match_score, :decision, :created_at)
`, rec)
	if err != nil {
		return fmt.Errorf("kyc: save record: %w", err)
	}
	return nil
}

// History returns the newest records first.
func (s *RecordStore) History(ctx context.Context, limit int) ([]model.KYCRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows := []model.KYCRecord{}
	if err := s.db.SelectContext(ctx, &rows, `
        SELECT id, request_id, name, id_number, match_score, decision, created_at
        FROM kyc_records
        ORDER BY id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("kyc: history: %w", err)
	}
	return rows, nil
}

func (s *RecordStore) Stats(ctx context.Context) (model.KYCStats, error) {
	var agg struct {
		Total    int `db:"total"`
		Approved int `db:"approved"`
	}
	if err := s.db.GetContext(ctx, &agg, `
        SELECT COUNT(*) AS total,
               COALESCE(SUM(decision = ?), 0) AS approved
        FROM kyc_records`, Approved); err != nil {
		return model.KYCStats{}, fmt.Errorf("kyc: stats: %w", err)
	}
	return model.KYCStats{
		TotalVerified: agg.Total,
		SuccessRate:   successRate(agg.Approved, agg.Total),
		Status:        "Online",
	}, nil
}

// successRate is the approved share in percent with one decimal.
func successRate(approved, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(approved)/float64(total)*1000) / 10
}
