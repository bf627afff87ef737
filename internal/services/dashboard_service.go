package services

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"formflow/internal/repositories"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	statsWindowDays  = 30
	DefaultTrendDays = 7
	MaxTrendDays     = 365
	trendDateLayout  = "2006-01-02"
)

// Stats are the dashboard KPI counters.
type Stats struct {
	TotalSubmissions      int64   `json:"totalSubmissions"`
	TotalForms            int64   `json:"totalForms"`
	TotalFormFields       int     `json:"totalFormFields"`
	Last30DaysSubmissions int64   `json:"last30DaysSubmissions"`
	AvgDailySubmissions   float64 `json:"avgDailySubmissions"`
}

// TrendPoint is one calendar-day bucket.
type TrendPoint struct {
	Date        string `json:"date"`
	Submissions int    `json:"submissions"`
}

// DashboardService aggregates submission counts. It only reads.
type DashboardService struct {
	forms repositories.FormRepository
	subs  repositories.SubmissionRepository
	loc   *time.Location
	now   func() time.Time
	log   *logrus.Logger
}

// NewDashboardService creates a DashboardService bucketing days in loc.
func NewDashboardService(forms repositories.FormRepository, subs repositories.SubmissionRepository, loc *time.Location, log *logrus.Logger) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{forms: forms, subs: subs, loc: loc, now: time.Now, log: log}
}

// WithClock replaces the time source.
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

// Stats computes the KPI counters. The independent reads run concurrently.
func (s *DashboardService) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	since := s.now().In(s.loc).AddDate(0, 0, -statsWindowDays)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.subs.Count(gctx)
		stats.TotalSubmissions = n
		return err
	})
	g.Go(func() error {
		n, err := s.forms.Count(gctx)
		stats.TotalForms = n
		return err
	})
	g.Go(func() error {
		all, err := s.forms.AllFields(gctx)
		if err != nil {
			return err
		}
		stats.TotalFormFields = s.countFields(all)
		return nil
	})
	g.Go(func() error {
		n, err := s.subs.CountSince(gctx, since)
		stats.Last30DaysSubmissions = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	stats.AvgDailySubmissions = AverageDaily(stats.Last30DaysSubmissions)
	return stats, nil
}

// AverageDaily is the 30-day mean rounded to one decimal.
func AverageDaily(last30Days int64) float64 {
	return math.Round(float64(last30Days)/statsWindowDays*10) / 10
}

// countFields sums field-list lengths. Lists that do not decode as a JSON
// array count as zero.
func (s *DashboardService) countFields(lists []datatypes.JSON) int {
	total := 0
	for _, raw := range lists {
		var fields []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			s.log.WithError(err).Debug("skipping unparsable field list")
			continue
		}
		total += len(fields)
	}
	return total
}

// ClampTrendDays applies the window bounds.
func ClampTrendDays(days int) int {
	if days < 1 {
		return 1
	}
	if days > MaxTrendDays {
		return MaxTrendDays
	}
	return days
}

// Trends counts submissions per calendar day for the last days days,
// today included, oldest first. Days without submissions are zero.
func (s *DashboardService) Trends(ctx context.Context, days int) ([]TrendPoint, error) {
	days = ClampTrendDays(days)

	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	start := today.AddDate(0, 0, -(days - 1))

	buckets := make(map[string]int, days)
	for i := 0; i < days; i++ {
		buckets[start.AddDate(0, 0, i).Format(trendDateLayout)] = 0
	}

	stamps, err := s.subs.TimestampsSince(ctx, start)
	if err != nil {
		return nil, err
	}
	for _, ts := range stamps {
		key := ts.In(s.loc).Format(trendDateLayout)
		if _, ok := buckets[key]; ok {
			buckets[key]++
		}
	}

	points := make([]TrendPoint, 0, len(buckets))
	for date, count := range buckets {
		points = append(points, TrendPoint{Date: date, Submissions: count})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}
