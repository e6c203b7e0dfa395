// Package triage picks the timeline record that best explains a failed run
// and derives the task, type, log and message shown for it.
package triage

import (
	"cmp"
	"slices"

	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
)

const (
	UnknownTask    = "Unknown Task"
	NoErrorDetail  = "No error detail available"
	UnknownType    = domain.UnknownDefault
	DefaultSummary = 180
)

// Degradation reasons.
const (
	ReasonNoFailedRecords     = "no_failed_records"
	ReasonTimelineUnavailable = "timeline_unavailable"
)

// Insight is the explanation derived for one failed run.
type Insight struct {
	FailedTask   string
	TaskType     string
	ErrorMessage string
	LogID        *int
}

// Outcome is the result of triaging one run. When Degraded is set, Insight
// holds placeholder values and Reason says why.
type Outcome struct {
	Insight  Insight
	Degraded bool
	Reason   string
}

// Placeholder is the insight used when nothing better is known.
func Placeholder() Insight {
	return Insight{
		FailedTask:   UnknownTask,
		TaskType:     UnknownType,
		ErrorMessage: NoErrorDetail,
	}
}

// Unavailable is the outcome for a run whose timeline could not be fetched.
func Unavailable() Outcome {
	return Outcome{Insight: Placeholder(), Degraded: true, Reason: ReasonTimelineUnavailable}
}

// Select triages a run's timeline. Failed records are ranked by three keys,
// compared in order, lower first:
//
//  1. Task records before stage/job wrappers
//  2. records with issues before records without
//  3. records with errorCount > 0 before the rest
//
// Ties keep timeline order. The first record wins.
func Select(records []domain.TimelineRecord) Outcome {
	failed := make([]domain.TimelineRecord, 0, len(records))
	for _, r := range records {
		if r.Failed() {
			failed = append(failed, r)
		}
	}
	if len(failed) == 0 {
		return Outcome{Insight: Placeholder(), Degraded: true, Reason: ReasonNoFailedRecords}
	}

	slices.SortStableFunc(failed, func(a, b domain.TimelineRecord) int {
		return cmp.Or(
			cmp.Compare(taskRank(a), taskRank(b)),
			cmp.Compare(issueRank(a), issueRank(b)),
			cmp.Compare(errorCountRank(a), errorCountRank(b)),
		)
	})

	return Outcome{Insight: explain(failed[0])}
}

func taskRank(r domain.TimelineRecord) int {
	if r.Type == domain.RecordTypeTask {
		return 0
	}
	return 1
}

func issueRank(r domain.TimelineRecord) int {
	if r.HasIssues() {
		return 0
	}
	return 1
}

func errorCountRank(r domain.TimelineRecord) int {
	if r.ErrorCount > 0 {
		return 0
	}
	return 1
}

func explain(best domain.TimelineRecord) Insight {
	return Insight{
		FailedTask:   firstNonEmpty(best.Name, best.TaskName(), best.RefName, UnknownTask),
		TaskType:     firstNonEmpty(best.TaskName(), best.Type, UnknownType),
		ErrorMessage: errorMessage(best),
		LogID:        best.LogID(),
	}
}

// errorMessage walks the fallback chain: first error-typed issue, else first
// issue, else resultCode, currentOperation, display name. The issue branches
// stop at the chosen issue: an issue without a message keeps the placeholder.
func errorMessage(r domain.TimelineRecord) string {
	if len(r.Issues) > 0 {
		issue := r.Issues[0]
		if i := slices.IndexFunc(r.Issues, func(is domain.Issue) bool {
			return is.Type == domain.IssueTypeError
		}); i >= 0 {
			issue = r.Issues[i]
		}
		return firstNonEmpty(issue.Message, NoErrorDetail)
	}

	return firstNonEmpty(r.ResultCode, r.CurrentOperation, r.Name, NoErrorDetail)
}

// Summarize cuts msg to at most limit characters. No ellipsis is added.
func Summarize(msg string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(msg)
	if len(runes) <= limit {
		return msg
	}
	return string(runes[:limit])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
