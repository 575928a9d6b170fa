package domain

import (
	"fmt"
	"strings"
)

type StatPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// StatsSummary is what the dashboard renders for one series.
// TrendPercent is nil when the first point is zero and a percentage is undefined.
type StatsSummary struct {
	Min           float64   `json:"min"`
	Max           float64   `json:"max"`
	Avg           float64   `json:"avg"`
	TrendAbsolute float64   `json:"trendAbsolute"`
	TrendPercent  *float64  `json:"trendPercent"`
	Normalized    []float64 `json:"normalized"`
}

// Aggregate reduces an ordered series into min/max/avg, first-to-last trend and
// bar heights scaled to 0..100. A flat series renders every bar at 0.
func Aggregate(points []StatPoint) StatsSummary {
	if len(points) == 0 {
		return StatsSummary{Normalized: []float64{}}
	}
	lo, hi := points[0].Value, points[0].Value
	var sum float64
	for _, p := range points {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
		sum += p.Value
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	normalized := make([]float64, len(points))
	for i, p := range points {
		normalized[i] = (p.Value - lo) / span * 100
	}

	first, last := points[0].Value, points[len(points)-1].Value
	summary := StatsSummary{
		Min:           lo,
		Max:           hi,
		Avg:           sum / float64(len(points)),
		TrendAbsolute: last - first,
		Normalized:    normalized,
	}
	if first != 0 {
		pct := summary.TrendAbsolute / first * 100
		summary.TrendPercent = &pct
	}
	return summary
}

// AdminStats is the admin stats endpoint payload.
type AdminStats struct {
	Users     []StatPoint `json:"users"`
	Revenue   []StatPoint `json:"revenue"`
	ChurnRate []StatPoint `json:"churnRate"`
	Period    string      `json:"period"`
}

type AdminStatsSummary struct {
	Period    string       `json:"period"`
	Users     StatsSummary `json:"users"`
	Revenue   StatsSummary `json:"revenue"`
	ChurnRate StatsSummary `json:"churnRate"`
}

func AggregateAdminStats(stats AdminStats) AdminStatsSummary {
	return AdminStatsSummary{
		Period:    stats.Period,
		Users:     Aggregate(stats.Users),
		Revenue:   Aggregate(stats.Revenue),
		ChurnRate: Aggregate(stats.ChurnRate),
	}
}

var supportedPeriods = map[string]struct{}{
	"7d": {}, "30d": {}, "90d": {}, "1y": {},
}

const DefaultStatsPeriod = "30d"

// NormalizePeriod lower-cases the period and defaults it when empty.
func NormalizePeriod(raw string) (string, error) {
	period := strings.ToLower(strings.TrimSpace(raw))
	if period == "" {
		return DefaultStatsPeriod, nil
	}
	if _, ok := supportedPeriods[period]; !ok {
		return "", fmt.Errorf("%w: unsupported period %q", ErrInvalidInput, raw)
	}
	return period, nil
}
