package events

import (
	"sort"
	"time"

	"github.com/ayush/potty-buddy/backend/internal/models"
)

// dayKey groups events by calendar date and type.
type dayKey struct {
	date string
	typ  models.EventType
}

// Rollup groups events into per-day counts and per-type totals. Dates are
// calendar dates in loc. The result never has nil slices or maps.
func Rollup(events []models.Event, loc *time.Location) *models.Summary {
	if loc == nil {
		loc = time.UTC
	}

	counts := make(map[dayKey]int)
	totals := make(map[models.EventType]int)
	for _, ev := range events {
		k := dayKey{date: ev.CreatedAt.In(loc).Format(time.DateOnly), typ: ev.Type}
		counts[k]++
		totals[ev.Type]++
	}

	daily := make([]models.DailyCount, 0, len(counts))
	for k, n := range counts {
		daily = append(daily, models.DailyCount{EventType: k.typ, Date: k.date, Count: n})
	}
	// YYYY-MM-DD sorts lexically in date order.
	sort.Slice(daily, func(i, j int) bool {
		if daily[i].Date != daily[j].Date {
			return daily[i].Date > daily[j].Date
		}
		return daily[i].EventType.String() < daily[j].EventType.String()
	})

	return &models.Summary{DailyEvents: daily, Totals: totals}
}
