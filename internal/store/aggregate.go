package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/ededdyj/Baby-Data/internal/model"
)

// Period is the bucket width used when aggregating events for charts.
type Period string

const (
	PeriodDay  Period = "day"
	PeriodHour Period = "hour"
)

// ParsePeriod validates a period string from the API.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDay, PeriodHour:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown period %q (want day or hour)", s)
}

// Bucket is one time slot in an aggregation: the slot start plus the count
// of each event kind that fell inside it.
type Bucket struct {
	Start  time.Time          `json:"start"`
	Counts map[model.Kind]int `json:"counts"`
}

// AggregateByPeriod counts filtered events per kind, grouped into day or
// hour buckets. Buckets are returned in ascending order; empty slots are
// omitted. Grouping happens here rather than in SQL so the same code runs
// against both sqlite and postgres.
func (s *Store) AggregateByPeriod(period Period, f Filter) ([]Bucket, error) {
	if period != PeriodDay && period != PeriodHour {
		return nil, fmt.Errorf("unknown period %q (want day or hour)", period)
	}

	events, err := s.List(f)
	if err != nil {
		return nil, err
	}

	byStart := make(map[time.Time]map[model.Kind]int)
	for _, e := range events {
		start := s.bucketStart(e.OccurredAt, period)
		if byStart[start] == nil {
			byStart[start] = make(map[model.Kind]int)
		}
		byStart[start][e.Kind]++
	}

	buckets := make([]Bucket, 0, len(byStart))
	for start, counts := range byStart {
		buckets = append(buckets, Bucket{Start: start, Counts: counts})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start)
	})
	return buckets, nil
}

func (s *Store) bucketStart(t time.Time, period Period) time.Time {
	t = t.In(s.loc)
	y, m, d := t.Date()
	if period == PeriodHour {
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, s.loc)
	}
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// Summary condenses a filtered slice of the log into the per-kind numbers
// shown above the charts: how many, when last, and how far apart on average.
type Summary struct {
	Totals      map[model.Kind]int        `json:"totals"`
	Last        map[model.Kind]*time.Time `json:"last"`
	AverageGaps map[model.Kind]float64    `json:"average_gap_seconds"`
}

// Summarize computes totals, most recent occurrence, and the average
// interval between consecutive events, per kind, over the filtered range.
// Kinds with fewer than two events report a zero average gap.
func (s *Store) Summarize(f Filter) (Summary, error) {
	events, err := s.List(f)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		Totals:      make(map[model.Kind]int),
		Last:        make(map[model.Kind]*time.Time),
		AverageGaps: make(map[model.Kind]float64),
	}

	// List returns newest first; walk it once per field.
	timesByKind := make(map[model.Kind][]time.Time)
	for _, e := range events {
		sum.Totals[e.Kind]++
		if sum.Last[e.Kind] == nil {
			t := e.OccurredAt
			sum.Last[e.Kind] = &t
		}
		timesByKind[e.Kind] = append(timesByKind[e.Kind], e.OccurredAt)
	}

	for kind, times := range timesByKind {
		if len(times) < 2 {
			continue
		}
		// Descending order, so first minus last spans the whole range.
		span := times[0].Sub(times[len(times)-1])
		sum.AverageGaps[kind] = span.Seconds() / float64(len(times)-1)
	}
	return sum, nil
}
