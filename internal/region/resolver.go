package region

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/emandor/kyc_service/internal/metrics"
	"github.com/emandor/kyc_service/internal/telemetry"
)

const (
	Unknown = "Unknown"

	LevelHigh = "High"
	LevelLow  = "Low"

	DefaultHighThreshold = 50
)

// Strategy names which lookup produced a resolution.
type Strategy string

const (
	StrategyPincode  Strategy = "pincode"
	StrategyDistrict Strategy = "district"
	StrategyNone     Strategy = "none"
)

// Indian PIN: six digits, first digit non-zero
var pincodeRe = regexp.MustCompile(`\b[1-9][0-9]{5}\b`)

// Risk is the regional signal attached to a verification.
type Risk struct {
	District string   `json:"district"`
	Score    int      `json:"score"`
	Level    string   `json:"level"`
	Strategy Strategy `json:"-"`
}

type district struct {
	name string // as stored, uppercased and trimmed
	key  string // space-separated tokens used for matching
}

type strategy func(ctx context.Context, text string) (Risk, bool)

// Resolver maps free address text to a district risk score. It owns the
// district-name cache: loaded on first use, never shrunk or invalidated.
type Resolver struct {
	table         Table
	highThreshold int
	metrics       *metrics.Metrics

	mu        sync.Mutex
	loaded    bool
	districts []district
}

func NewResolver(t Table, highThreshold int, m *metrics.Metrics) *Resolver {
	if highThreshold <= 0 {
		highThreshold = DefaultHighThreshold
	}
	return &Resolver{table: t, highThreshold: highThreshold, metrics: m}
}

// Resolve tries the PIN strategy, then district-name containment, and stops
// at the first hit. No hit yields Unknown with score 0.
func (r *Resolver) Resolve(ctx context.Context, text string) Risk {
	for _, s := range []strategy{r.byPincode, r.byDistrictName} {
		if risk, ok := s(ctx, text); ok {
			risk.Level = r.Level(risk.Score)
			r.metrics.IncRegionStrategy(string(risk.Strategy))
			return risk
		}
	}
	r.metrics.IncRegionStrategy(string(StrategyNone))
	return r.Unknown()
}

// Unknown is the resolution used when nothing matched or no text was given.
func (r *Resolver) Unknown() Risk {
	return Risk{District: Unknown, Score: 0, Level: r.Level(0), Strategy: StrategyNone}
}

func (r *Resolver) Level(score int) string {
	if score >= r.highThreshold {
		return LevelHigh
	}
	return LevelLow
}

func (r *Resolver) byPincode(ctx context.Context, text string) (Risk, bool) {
	log := telemetry.Module("region")
	for _, pin := range pincodeRe.FindAllString(text, -1) {
		rec, ok, err := r.table.ByPincode(ctx, pin)
		if err != nil {
			log.Warn().Err(err).Str("pincode", pin).Msg("region_pincode_lookup_failed")
			continue
		}
		if ok {
			return Risk{District: rec.District, Score: rec.RiskScore, Strategy: StrategyPincode}, true
		}
	}
	return Risk{}, false
}

func (r *Resolver) byDistrictName(ctx context.Context, text string) (Risk, bool) {
	haystack := " " + tokens(text) + " "
	if strings.TrimSpace(haystack) == "" {
		return Risk{}, false
	}
	for _, d := range r.knownDistricts(ctx) {
		if !strings.Contains(haystack, " "+d.key+" ") {
			continue
		}
		score, ok, err := r.table.DistrictRisk(ctx, d.name)
		if err != nil {
			log := telemetry.Module("region")
			log.Warn().Err(err).Str("district", d.name).Msg("region_district_lookup_failed")
			return Risk{}, false
		}
		if ok {
			return Risk{District: d.name, Score: score, Strategy: StrategyDistrict}, true
		}
		// a listed district without a score row reports 0
		return Risk{District: d.name, Score: 0, Strategy: StrategyDistrict}, true
	}
	return Risk{}, false
}

// knownDistricts loads the district set once. A failed or empty load is not
// cached so a later request can retry.
func (r *Resolver) knownDistricts(ctx context.Context) []district {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return r.districts
	}

	log := telemetry.Module("region")
	names, err := r.table.Districts(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("region_district_cache_load_failed")
		return nil
	}

	seen := make(map[string]struct{}, len(names))
	list := make([]district, 0, len(names))
	for _, n := range names {
		name := normalizeDistrict(n)
		key := tokens(name)
		if key == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		list = append(list, district{name: name, key: key})
	}
	// longest first so "NORTH GOA" wins over "GOA"; ties alphabetical
	sort.Slice(list, func(i, j int) bool {
		if len(list[i].key) != len(list[j].key) {
			return len(list[i].key) > len(list[j].key)
		}
		return list[i].key < list[j].key
	})

	if len(list) == 0 {
		return nil
	}
	r.districts, r.loaded = list, true
	log.Info().Int("districts", len(list)).Msg("region_district_cache_loaded")
	return r.districts
}

// tokens uppercases s and reduces it to single-space separated alphanumeric runs.
func tokens(s string) string {
	return strings.Join(strings.FieldsFunc(strings.ToUpper(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}
