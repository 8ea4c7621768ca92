package model

import "time"

// KYCRecord is the persisted summary of one verification.
type KYCRecord struct {
	ID         int64     `db:"id" json:"id"`
	RequestID  string    `db:"request_id" json:"request_id"`
	Name       string    `db:"name" json:"name"`
	IDNumber   string    `db:"id_number" json:"id_number"`
	MatchScore float64   `db:"match_score" json:"match_score"`
	Decision   string    `db:"decision" json:"decision"`
	CreatedAt  time.Time `db:"created_at" json:"timestamp"`
}

// KYCStats aggregates kyc_records for the dashboard.
type KYCStats struct {
	TotalVerified int     `json:"total_verified"`
	SuccessRate   float64 `json:"success_rate"`
	Status        string  `json:"status"`
}
