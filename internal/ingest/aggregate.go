// Package ingest builds the regional risk table from raw update-count shards.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/emandor/kyc_service/internal/region"
)

// shard columns; column 0 is a date and is ignored
const (
	colState = iota + 1
	colDistrict
	colPincode
	colUpdates
)

type pinRow struct {
	pincode, district, state string
}

// Aggregator sums update counts per district across shards and broadcasts
// the district score to every pincode seen in it.
type Aggregator struct {
	totals  map[string]float64
	order   []pinRow
	seen    map[string]struct{}
	rows    int
	skipped int
}

func NewAggregator() *Aggregator {
	return &Aggregator{totals: map[string]float64{}, seen: map[string]struct{}{}}
}

// Add consumes one headerless CSV shard. Rows whose pincode is not a
// six-digit number (header lines, blanks, malformed codes) are skipped;
// unparsable update counts count as 0. A shard that fails to parse leaves
// the aggregator unchanged.
func (a *Aggregator) Add(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	totals := map[string]float64{}
	var pins []pinRow
	var rows, skipped int
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("ingest: line %d: %w", line, err)
		}
		if len(rec) <= colUpdates {
			skipped++
			continue
		}

		pin := cleanPincode(rec[colPincode])
		district := strings.TrimSpace(rec[colDistrict])
		if pin == "" || district == "" {
			skipped++
			continue
		}

		rows++
		totals[district] += updates(rec[colUpdates])
		pins = append(pins, pinRow{pincode: pin, district: district, state: strings.TrimSpace(rec[colState])})
	}

	for d, v := range totals {
		a.totals[d] += v
	}
	for _, p := range pins {
		if _, dup := a.seen[p.pincode]; dup {
			continue
		}
		a.seen[p.pincode] = struct{}{}
		a.order = append(a.order, p)
	}
	a.rows += rows
	a.skipped += skipped
	return nil
}

// Records scores every pincode as round(100 * district / busiest district).
func (a *Aggregator) Records() []region.Record {
	var peak float64
	for _, v := range a.totals {
		peak = math.Max(peak, v)
	}

	out := make([]region.Record, 0, len(a.order))
	for _, p := range a.order {
		score := 0
		if peak > 0 {
			score = int(math.RoundToEven(a.totals[p.district] / peak * 100))
		}
		out = append(out, region.Record{Pincode: p.pincode, District: p.district, RiskScore: score, State: p.state})
	}
	return out
}

// Stats reports accepted rows, skipped rows and distinct districts.
func (a *Aggregator) Stats() (rows, skipped, districts int) {
	return a.rows, a.skipped, len(a.totals)
}

// Aggregate is NewAggregator plus Add for each shard.
func Aggregate(shards ...io.Reader) ([]region.Record, error) {
	a := NewAggregator()
	for i, r := range shards {
		if err := a.Add(r); err != nil {
			return nil, fmt.Errorf("shard %d: %w", i, err)
		}
	}
	return a.Records(), nil
}

const pincodeLen = 6

// cleanPincode drops a float suffix ("411001.0") and rejects anything but
// six digits.
func cleanPincode(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".0")
	if len(s) != pincodeLen {
		return ""
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return s
}

func updates(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
