package region

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Record is one row of the regional risk reference table.
type Record struct {
	Pincode   string `db:"pincode" json:"pincode"`
	District  string `db:"district" json:"district"`
	RiskScore int    `db:"risk_score" json:"risk_score"`
	State     string `db:"state" json:"state"`
}

// Table is the read side of the reference table. Lookups that find nothing
// return ok=false with a nil error.
type Table interface {
	ByPincode(ctx context.Context, pincode string) (Record, bool, error)
	DistrictRisk(ctx context.Context, district string) (int, bool, error)
	Districts(ctx context.Context) ([]string, error)
}

// MemoryTable is an in-process Table, used by tests and the ingest dry run.
type MemoryTable struct {
	mu        sync.RWMutex
	byPin     map[string]Record
	districts map[string]int
}

func NewMemoryTable(rows []Record) *MemoryTable {
	t := &MemoryTable{}
	t.Replace(context.Background(), rows)
	return t
}

// Replace swaps the table contents; the first row per pincode wins.
func (t *MemoryTable) Replace(_ context.Context, rows []Record) error {
	byPin := make(map[string]Record, len(rows))
	districts := make(map[string]int)
	for _, r := range rows {
		if _, dup := byPin[r.Pincode]; dup {
			continue
		}
		byPin[r.Pincode] = r
		key := normalizeDistrict(r.District)
		if cur, ok := districts[key]; !ok || r.RiskScore > cur {
			districts[key] = r.RiskScore
		}
	}
	t.mu.Lock()
	t.byPin, t.districts = byPin, districts
	t.mu.Unlock()
	return nil
}

func (t *MemoryTable) ByPincode(_ context.Context, pincode string) (Record, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.byPin[pincode]
	return r, ok, nil
}

func (t *MemoryTable) DistrictRisk(_ context.Context, district string) (int, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	score, ok := t.districts[normalizeDistrict(district)]
	return score, ok, nil
}

func (t *MemoryTable) Districts(_ context.Context) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.districts))
	for d := range t.districts {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func normalizeDistrict(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
