// Package dashboard aggregates a customer's daycare bookings into the
// figures shown on their dashboard.
package dashboard

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"time"
)

const (
	UnknownCenter = "Unknown Center"
	Window        = 7 * 24 * time.Hour
)

// Booking is the subset of a daycare booking the dashboard reads.
type Booking struct {
	ID            string    `json:"_id"`
	TotalAmount   float64   `json:"totalAmount"`
	CreatedAt     Timestamp `json:"createdAt"`
	DaycareCenter *Center   `json:"daycareCenter"`
}

type Center struct {
	Name string `json:"name"`
}

func (b Booking) centerName() string {
	if b.DaycareCenter == nil || b.DaycareCenter.Name == "" {
		return UnknownCenter
	}
	return b.DaycareCenter.Name
}

// Timestamp decodes an RFC 3339 string and leaves unparseable values as the
// zero time, which never falls inside the trailing window.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) || json.Unmarshal(data, &s) != nil {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

type Stats struct {
	TotalBookings       int     `json:"totalBookings"`
	BookingsLastWeek    int     `json:"bookingsLastWeek"`
	TotalAmountSpent    float64 `json:"totalAmountSpent"`
	AmountSpentLastWeek float64 `json:"amountSpentLastWeek"`
}

type ProviderAmount struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type ProviderCount struct {
	Name     string `json:"name"`
	Bookings int    `json:"bookings"`
}

// Report is the full dashboard payload.
type Report struct {
	Stats            Stats            `json:"stats"`
	AmountByProvider []ProviderAmount `json:"amountByProvider"`
	CountByProvider  []ProviderCount  `json:"countByProvider"`
}

// Build computes every dashboard figure for bookings as of now.
func Build(bookings []Booking, now time.Time) Report {
	return Report{
		Stats:            Summarize(bookings, now),
		AmountByProvider: AmountByProvider(bookings),
		CountByProvider:  CountByProvider(bookings),
	}
}

// Summarize counts and totals bookings overall and within the seven days
// ending at now. A booking created exactly seven days ago is included.
func Summarize(bookings []Booking, now time.Time) Stats {
	since := now.Add(-Window)
	var (
		stats                   Stats
		totalCents, recentCents int64
	)
	for _, b := range bookings {
		cents := toCents(b.TotalAmount)
		stats.TotalBookings++
		totalCents += cents
		if !b.CreatedAt.IsZero() && !b.CreatedAt.Before(since) {
			stats.BookingsLastWeek++
			recentCents += cents
		}
	}
	stats.TotalAmountSpent = fromCents(totalCents)
	stats.AmountSpentLastWeek = fromCents(recentCents)
	return stats
}

// AmountByProvider sums amounts per daycare center, ordered by name.
func AmountByProvider(bookings []Booking) []ProviderAmount {
	sums := make(map[string]int64)
	for _, b := range bookings {
		sums[b.centerName()] += toCents(b.TotalAmount)
	}
	out := make([]ProviderAmount, 0, len(sums))
	for name, cents := range sums {
		out = append(out, ProviderAmount{Name: name, Value: fromCents(cents)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CountByProvider counts bookings per daycare center, ordered by name.
func CountByProvider(bookings []Booking) []ProviderCount {
	counts := make(map[string]int)
	for _, b := range bookings {
		counts[b.centerName()]++
	}
	out := make([]ProviderCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, ProviderCount{Name: name, Bookings: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func toCents(amount float64) int64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return int64(math.Round(amount * 100))
}

func fromCents(cents int64) float64 {
	return float64(cents) / 100
}
