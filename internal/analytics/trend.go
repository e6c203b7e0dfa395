// Package analytics aggregates build listings into trend statistics.
package analytics

import (
	"math"
	"sort"

	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
)

const dayPrefixLen = len("2006-01-02")

// Summarize computes counts, success rate and the per-day histogram of
// builds. It does not modify builds.
func Summarize(builds []domain.Build) domain.AnalyticsReport {
	report := domain.AnalyticsReport{
		TotalRuns:           len(builds),
		BuildTrend:          make(map[string]int),
		FailureDistribution: FailureDistribution(builds),
	}

	for _, b := range builds {
		switch b.Result {
		case domain.ResultSucceeded:
			report.SuccessCount++
		case domain.ResultFailed:
			report.FailureCount++
		}

		if day := calendarDay(b.QueueTime); day != "" {
			report.BuildTrend[day]++
		}
	}

	report.SuccessRate = SuccessRate(report.SuccessCount, report.TotalRuns)
	report.CodePushFrequency = report.BuildTrend

	return report
}

// SuccessRate is succeeded/total as a percentage rounded to two decimals,
// or 0 when total is 0.
func SuccessRate(succeeded, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(succeeded) / float64(total) * 100
	return math.Round(pct*100) / 100
}

// FailureDistribution counts failed builds per definition name.
func FailureDistribution(builds []domain.Build) map[string]int {
	dist := make(map[string]int)
	for _, b := range builds {
		if b.Result == domain.ResultFailed {
			dist[b.DefinitionName()]++
		}
	}
	return dist
}

// SortedDays returns the histogram keys in ascending date order.
func SortedDays(trend map[string]int) []string {
	days := make([]string, 0, len(trend))
	for day := range trend {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

func calendarDay(timestamp string) string {
	if len(timestamp) <= dayPrefixLen {
		return timestamp
	}
	return timestamp[:dayPrefixLen]
}
