package service_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	infralogger "github.com/sivakumaru2002/devops-ease-access/infrastructure/logger"
	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
	"github.com/sivakumaru2002/devops-ease-access/internal/service"
	"github.com/sivakumaru2002/devops-ease-access/internal/summarizer"
	"github.com/sivakumaru2002/devops-ease-access/internal/telemetry"
	"github.com/sivakumaru2002/devops-ease-access/internal/triage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFailureService(sum summarizer.Summarizer) *service.FailureService {
	return service.NewFailureService(service.FailureConfig{}, sum, telemetry.NewProvider(), infralogger.NewNop())
}

func intPtr(v int) *int { return &v }

func sumValues(m map[string]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

func TestDiagnose_EndToEnd(t *testing.T) {
	timelines := map[int]*domain.Timeline{
		101: {Records: []domain.TimelineRecord{
			{Type: "Stage", Result: "failed", Name: "Build"},
			{
				Type: "Task", Result: "failed", Name: "Provision disk",
				Task:   &domain.TaskRef{Name: "Bash"},
				Log:    &domain.LogRef{ID: 9},
				Issues: []domain.Issue{{Type: "error", Message: "disk full"}}, ErrorCount: 1,
			},
		}},
		102: {Records: []domain.TimelineRecord{
			{Type: "Stage", Result: "failed", Name: "__default", ResultCode: "Stage failed: job canceled"},
		}},
	}
	src := &fakeSource{
		listRunsFunc: runsFunc(run(101, "failed"), run(102, "failed"), run(103, "succeeded")),
		getTimelineFunc: func(_ context.Context, _ string, id int) (*domain.Timeline, error) {
			return timelines[id], nil
		},
	}
	sum := &recordingSummarizer{result: summarizer.Result{Available: true, Text: "Agents are out of disk."}}

	d, err := newFailureService(sum).Diagnose(t.Context(), src, "web", 3, nil)
	require.NoError(t, err)

	report := d.Report
	assert.Equal(t, domain.StatusFailuresDetected, report.Status)
	assert.Equal(t, "web-ci", report.PipelineName)
	assert.Len(t, report.FailureSummary, 2)
	assert.Equal(t, 2, sumValues(report.FailureSummary))

	require.Len(t, report.FailedRuns, 2)
	a, b := report.FailedRuns[0], report.FailedRuns[1]
	assert.Equal(t, 101, a.RunID)
	assert.Equal(t, "disk full", a.ErrorMessage)
	assert.Equal(t, "Provision disk", a.FailedTask)
	assert.Equal(t, "Bash", a.TaskType)
	require.NotNil(t, a.LogID)
	assert.Equal(t, 9, *a.LogID)
	assert.Equal(t, "2026-03-01T10:00:00Z", a.Timestamp)

	assert.Equal(t, 102, b.RunID)
	assert.Equal(t, "Stage failed: job canceled", b.ErrorMessage)
	assert.Equal(t, "Stage", b.TaskType)
	assert.Nil(t, b.LogID)

	require.NotNil(t, report.AISummary)
	assert.Equal(t, "Agents are out of disk.", *report.AISummary)
	assert.Equal(t, []string{"disk full", "Stage failed: job canceled"}, sum.messages)
	assert.Empty(t, d.Degraded)
}

func TestDiagnose_NoFailures(t *testing.T) {
	src := &fakeSource{listRunsFunc: runsFunc(run(1, "succeeded"), run(2, "canceled"))}
	sum := &recordingSummarizer{}

	d, err := newFailureService(sum).Diagnose(t.Context(), src, "web", 3, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusAllSuccessful, d.Report.Status)
	assert.Equal(t, "web-ci", d.Report.PipelineName)
	assert.Empty(t, d.Report.FailedRuns)
	assert.NotNil(t, d.Report.FailedRuns)
	assert.Empty(t, d.Report.FailureSummary)
	assert.Nil(t, d.Report.AISummary)
	assert.Zero(t, sum.calls)
	assert.Zero(t, src.timelineCalls.Load())
}

func TestDiagnose_NoRunsUsesPipelineID(t *testing.T) {
	src := &fakeSource{listRunsFunc: runsFunc()}

	d, err := newFailureService(nil).Diagnose(t.Context(), src, "web", 42, nil)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusAllSuccessful, d.Report.Status)
	assert.Equal(t, "42", d.Report.PipelineName)
}

func TestDiagnose_SpecificRun(t *testing.T) {
	src := &fakeSource{
		listRunsFunc: runsFunc(run(1, "failed"), run(2, "succeeded"), run(3, "failed")),
		getTimelineFunc: func(context.Context, string, int) (*domain.Timeline, error) {
			return &domain.Timeline{Records: []domain.TimelineRecord{{Type: "Task", Result: "failed", Name: "Test"}}}, nil
		},
	}
	svc := newFailureService(nil)

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Diagnose(t.Context(), src, "web", 3, intPtr(99))
		require.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("succeeded run short-circuits", func(t *testing.T) {
		d, err := svc.Diagnose(t.Context(), src, "web", 3, intPtr(2))
		require.NoError(t, err)
		assert.Equal(t, domain.StatusAllSuccessful, d.Report.Status)
		assert.Equal(t, "web-ci", d.Report.PipelineName)
	})

	t.Run("failed run is the only one triaged", func(t *testing.T) {
		d, err := svc.Diagnose(t.Context(), src, "web", 3, intPtr(3))
		require.NoError(t, err)
		require.Len(t, d.Report.FailedRuns, 1)
		assert.Equal(t, 3, d.Report.FailedRuns[0].RunID)
	})
}

func TestDiagnose_CapsFailedRuns(t *testing.T) {
	runs := make([]domain.Run, 0, 30)
	for i := range 30 {
		runs = append(runs, run(1000-i, "failed"))
	}
	src := &fakeSource{
		listRunsFunc: runsFunc(runs...),
		getTimelineFunc: func(_ context.Context, _ string, id int) (*domain.Timeline, error) {
			return &domain.Timeline{Records: []domain.TimelineRecord{
				{Type: "Task", Result: "failed", Name: fmt.Sprintf("task-%d", id%3)},
			}}, nil
		},
	}

	d, err := newFailureService(nil).Diagnose(t.Context(), src, "web", 3, nil)
	require.NoError(t, err)

	assert.Len(t, d.Report.FailedRuns, service.DefaultMaxFailedRuns)
	assert.Equal(t, service.DefaultMaxFailedRuns, sumValues(d.Report.FailureSummary))
	assert.EqualValues(t, service.DefaultMaxFailedRuns, src.timelineCalls.Load())
	assert.Equal(t, 1000, d.Report.FailedRuns[0].RunID)
	assert.Equal(t, 981, d.Report.FailedRuns[19].RunID)
}

func TestDiagnose_OrderSurvivesFanOut(t *testing.T) {
	runs := make([]domain.Run, 0, 12)
	for i := range 12 {
		runs = append(runs, run(500-i, "failed"))
	}
	src := &fakeSource{
		listRunsFunc: runsFunc(runs...),
		getTimelineFunc: func(_ context.Context, _ string, id int) (*domain.Timeline, error) {
			time.Sleep(time.Duration(rand.IntN(5)) * time.Millisecond)
			return &domain.Timeline{Records: []domain.TimelineRecord{
				{Type: "Task", Result: "failed", Name: fmt.Sprintf("run-%d", id)},
			}}, nil
		},
	}

	d, err := newFailureService(nil).Diagnose(t.Context(), src, "web", 3, nil)
	require.NoError(t, err)

	for i, fr := range d.Report.FailedRuns {
		assert.Equal(t, runs[i].ID, fr.RunID)
		assert.Equal(t, fmt.Sprintf("run-%d", runs[i].ID), fr.FailedTask)
	}
}

func TestDiagnose_TimelineFailureDegradesOnlyThatRun(t *testing.T) {
	src := &fakeSource{
		listRunsFunc: runsFunc(run(1, "failed"), run(2, "failed"), run(3, "failed")),
		getTimelineFunc: func(_ context.Context, _ string, id int) (*domain.Timeline, error) {
			switch id {
			case 2:
				return nil, errors.New("connection reset")
			case 3:
				return &domain.Timeline{}, nil
			default:
				return &domain.Timeline{Records: []domain.TimelineRecord{
					{Type: "Task", Result: "failed", Name: "Lint", Issues: []domain.Issue{{Type: "error", Message: "lint failed"}}},
				}}, nil
			}
		},
	}

	d, err := newFailureService(nil).Diagnose(t.Context(), src, "web", 3, nil)
	require.NoError(t, err)

	require.Len(t, d.Report.FailedRuns, 3)
	assert.Equal(t, "lint failed", d.Report.FailedRuns[0].ErrorMessage)

	degraded := d.Report.FailedRuns[1]
	assert.Equal(t, triage.UnknownTask, degraded.FailedTask)
	assert.Equal(t, triage.NoErrorDetail, degraded.ErrorMessage)
	assert.Equal(t, triage.UnknownType, degraded.TaskType)
	assert.Nil(t, degraded.LogID)

	assert.Equal(t, []service.DegradedRun{
		{RunID: 2, Reason: triage.ReasonTimelineUnavailable},
		{RunID: 3, Reason: triage.ReasonNoFailedRecords},
	}, d.Degraded)
	assert.Equal(t, map[string]int{"Lint": 1, triage.UnknownTask: 2}, d.Report.FailureSummary)
}

func TestDiagnose_ListRunsFailureIsUpstreamError(t *testing.T) {
	src := &fakeSource{
		listRunsFunc: func(context.Context, string, int) ([]domain.Run, error) {
			return nil, context.DeadlineExceeded
		},
	}

	_, err := newFailureService(nil).Diagnose(t.Context(), src, "web", 3, nil)

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.True(t, upstream.Timeout())
}

func TestDiagnose_SummarizerUnavailableLeavesSummaryAbsent(t *testing.T) {
	src := &fakeSource{
		listRunsFunc: runsFunc(run(1, "failed")),
		getTimelineFunc: func(context.Context, string, int) (*domain.Timeline, error) {
			return &domain.Timeline{}, nil
		},
	}
	sum := &recordingSummarizer{result: summarizer.Result{Reason: summarizer.ReasonProviderError}}

	d, err := newFailureService(sum).Diagnose(t.Context(), src, "web", 3, nil)
	require.NoError(t, err)

	assert.Nil(t, d.Report.AISummary)
	assert.Equal(t, summarizer.ReasonProviderError, d.Summary.Reason)
	assert.Equal(t, domain.StatusFailuresDetected, d.Report.Status)
}

func TestDiagnose_LogSummaryTruncated(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	src := &fakeSource{
		listRunsFunc: runsFunc(run(1, "failed")),
		getTimelineFunc: func(context.Context, string, int) (*domain.Timeline, error) {
			return &domain.Timeline{Records: []domain.TimelineRecord{
				{Type: "Task", Result: "failed", Issues: []domain.Issue{{Type: "error", Message: string(long)}}},
			}}, nil
		},
	}

	d, err := newFailureService(nil).Diagnose(t.Context(), src, "web", 3, nil)
	require.NoError(t, err)

	fr := d.Report.FailedRuns[0]
	assert.Len(t, fr.ErrorMessage, 300)
	assert.Len(t, fr.LogsSummary, 180)
}
