// Package dashboard aggregates the numbers behind the landing page. Chart
// rendering is the client's problem; these are plain data series.
package dashboard

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/darasahq/darasa/core/records"
	"github.com/darasahq/darasa/core/student"
)

type (
	Stats struct {
		TotalStudents   int             `json:"total_students"`
		FeesCollected   decimal.Decimal `json:"fees_collected"`
		FeesOutstanding decimal.Decimal `json:"fees_outstanding"`
		PendingLeaves   int             `json:"pending_leaves"`
		UpcomingHolidays int            `json:"upcoming_holidays"`
	}

	// ChartData matches what the dashboard charts consume.
	ChartData struct {
		Labels []string          `json:"labels"`
		Series []decimal.Decimal `json:"series"`
	}

	Service struct {
		students *student.Service
		records  *records.Service
	}
)

func NewService(students *student.Service, recs *records.Service) *Service {
	return &Service{students: students, records: recs}
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	students, err := svc.students.QueryAll(ctx)
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying students")
	}

	stats := Stats{TotalStudents: len(students)}
	for _, st := range students {
		stats.FeesCollected = stats.FeesCollected.Add(st.AmountPaid)
		stats.FeesOutstanding = stats.FeesOutstanding.Add(st.Balance)
	}

	leaves, err := svc.records.Query(ctx, "leaves")
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying leaves")
	}
	for _, l := range leaves {
		if s, _ := l["status"].(string); strings.EqualFold(s, "pending") {
			stats.PendingLeaves++
		}
	}

	holidays, err := svc.records.Query(ctx, "holidays")
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying holidays")
	}
	today := time.Now().UTC().Format("2006-01-02")
	for _, h := range holidays {
		if d, _ := h["date"].(string); d >= today {
			stats.UpcomingHolidays++
		}
	}
	return stats, nil
}

// ClassDistribution counts students per class.
func (svc *Service) ClassDistribution(ctx context.Context) (ChartData, error) {
	students, err := svc.students.QueryAll(ctx)
	if err != nil {
		return ChartData{}, errors.Wrap(err, "querying students")
	}

	counts := make(map[string]int64)
	for _, st := range students {
		counts[st.Class]++
	}
	classes := make([]string, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	data := ChartData{}
	for _, c := range classes {
		data.Labels = append(data.Labels, "Class "+c)
		data.Series = append(data.Series, decimal.NewFromInt(counts[c]))
	}
	return data, nil
}

// FeesOverview returns total paid vs total pending across all accounts.
func (svc *Service) FeesOverview(ctx context.Context) (ChartData, error) {
	students, err := svc.students.QueryAll(ctx)
	if err != nil {
		return ChartData{}, errors.Wrap(err, "querying students")
	}

	var paid, pending decimal.Decimal
	for _, st := range students {
		paid = paid.Add(st.AmountPaid)
		pending = pending.Add(st.Balance)
	}
	return ChartData{
		Labels: []string{"Total Paid", "Total Pending"},
		Series: []decimal.Decimal{paid, pending},
	}, nil
}
