package service

import (
	"context"
	"fmt"
	"strconv"

	infralogger "github.com/sivakumaru2002/devops-ease-access/infrastructure/logger"
	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
	"github.com/sivakumaru2002/devops-ease-access/internal/summarizer"
	"github.com/sivakumaru2002/devops-ease-access/internal/telemetry"
	"github.com/sivakumaru2002/devops-ease-access/internal/triage"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMaxFailedRuns       = 20
	DefaultTimelineConcurrency = 8
)

// FailureConfig bounds a diagnosis.
type FailureConfig struct {
	// MaxFailedRuns caps how many failed runs are triaged. Runs past the cap
	// are left out of the report without notice.
	MaxFailedRuns       int
	LogSummaryLength    int
	TimelineConcurrency int
}

// DegradedRun records a failed run reported with placeholder detail.
type DegradedRun struct {
	RunID  int
	Reason string
}

// Diagnosis is a failure report plus how it was produced.
type Diagnosis struct {
	Report   domain.FailureReport
	Degraded []DegradedRun
	Summary  summarizer.Result
}

// FailureService produces error-intelligence reports.
type FailureService struct {
	cfg        FailureConfig
	summarizer summarizer.Summarizer
	metrics    *telemetry.Provider
	log        infralogger.Logger
}

// NewFailureService returns a FailureService. metrics may be nil.
func NewFailureService(
	cfg FailureConfig,
	sum summarizer.Summarizer,
	metrics *telemetry.Provider,
	log infralogger.Logger,
) *FailureService {
	if cfg.MaxFailedRuns <= 0 {
		cfg.MaxFailedRuns = DefaultMaxFailedRuns
	}
	if cfg.LogSummaryLength <= 0 {
		cfg.LogSummaryLength = triage.DefaultSummary
	}
	if cfg.TimelineConcurrency <= 0 {
		cfg.TimelineConcurrency = DefaultTimelineConcurrency
	}
	if sum == nil {
		sum = summarizer.Disabled{}
	}

	return &FailureService{cfg: cfg, summarizer: sum, metrics: metrics, log: log}
}

// Diagnose explains why a pipeline's recent runs failed. With runID set,
// only that run is considered. Listing runs is the only call whose failure
// fails the request; a timeline that cannot be fetched degrades only its run.
func (s *FailureService) Diagnose(
	ctx context.Context,
	src Source,
	project string,
	pipelineID int,
	runID *int,
) (*Diagnosis, error) {
	runs, err := src.ListPipelineRuns(ctx, project, pipelineID)
	if err != nil {
		return nil, domain.NewUpstreamError("list pipeline runs", err)
	}

	var failed []domain.Run
	if runID != nil {
		target, found := findRun(runs, *runID)
		if !found {
			return nil, fmt.Errorf("run %d: %w", *runID, domain.ErrRunNotFound)
		}
		if !target.Failed() {
			return s.allSuccessful(pipelineID, target.PipelineName()), nil
		}
		failed = []domain.Run{target}
	} else {
		for _, r := range runs {
			if r.Failed() {
				failed = append(failed, r)
			}
		}
	}

	if len(failed) == 0 {
		name := ""
		if len(runs) > 0 {
			name = runs[0].PipelineName()
		}
		return s.allSuccessful(pipelineID, name), nil
	}

	if len(failed) > s.cfg.MaxFailedRuns {
		failed = failed[:s.cfg.MaxFailedRuns]
	}

	outcomes := s.triageRuns(ctx, src, project, failed)
	return s.assemble(ctx, pipelineID, failed, outcomes), nil
}

// triageRuns fetches timelines concurrently. Each goroutine writes only its
// own index, so outcomes line up with runs regardless of completion order.
func (s *FailureService) triageRuns(
	ctx context.Context,
	src Source,
	project string,
	runs []domain.Run,
) []triage.Outcome {
	outcomes := make([]triage.Outcome, len(runs))
	log := infralogger.FromContext(ctx)

	var g errgroup.Group
	g.SetLimit(s.cfg.TimelineConcurrency)

	for i, run := range runs {
		g.Go(func() error {
			timeline, err := src.GetTimeline(ctx, project, run.ID)
			if err != nil {
				log.Warn("Timeline unavailable, reporting run with placeholders",
					infralogger.String("project", project),
					infralogger.Int("run_id", run.ID),
					infralogger.Error(err),
				)
				outcomes[i] = triage.Unavailable()
				return nil
			}

			var records []domain.TimelineRecord
			if timeline != nil {
				records = timeline.Records
			}
			outcomes[i] = triage.Select(records)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (s *FailureService) assemble(
	ctx context.Context,
	pipelineID int,
	runs []domain.Run,
	outcomes []triage.Outcome,
) *Diagnosis {
	d := &Diagnosis{
		Report: domain.FailureReport{
			PipelineID:     pipelineID,
			PipelineName:   pipelineName(runs[0].PipelineName(), pipelineID),
			Status:         domain.StatusFailuresDetected,
			FailureSummary: make(map[string]int),
			FailedRuns:     make([]domain.FailedRun, 0, len(runs)),
		},
	}

	messages := make([]string, 0, len(runs))
	for i, run := range runs {
		outcome := outcomes[i]
		insight := outcome.Insight

		if outcome.Degraded {
			d.Degraded = append(d.Degraded, DegradedRun{RunID: run.ID, Reason: outcome.Reason})
			s.metrics.RecordDegradedRun(outcome.Reason)
		}

		d.Report.FailureSummary[insight.FailedTask]++
		d.Report.FailedRuns = append(d.Report.FailedRuns, domain.FailedRun{
			RunID:        run.ID,
			FailedTask:   insight.FailedTask,
			ErrorMessage: insight.ErrorMessage,
			Timestamp:    run.CreatedDate,
			LogsSummary:  triage.Summarize(insight.ErrorMessage, s.cfg.LogSummaryLength),
			TaskType:     insight.TaskType,
			LogID:        insight.LogID,
		})
		messages = append(messages, insight.ErrorMessage)
	}

	d.Summary = s.summarizer.Summarize(ctx, messages)
	switch {
	case d.Summary.Available:
		text := d.Summary.Text
		d.Report.AISummary = &text
	case d.Summary.Reason != summarizer.ReasonNotConfigured:
		s.log.Debug("AI summary unavailable",
			infralogger.Int("pipeline_id", pipelineID),
			infralogger.String("reason", d.Summary.Reason),
		)
	}

	return d
}

func (s *FailureService) allSuccessful(pipelineID int, name string) *Diagnosis {
	return &Diagnosis{
		Report: domain.FailureReport{
			PipelineID:     pipelineID,
			PipelineName:   pipelineName(name, pipelineID),
			Status:         domain.StatusAllSuccessful,
			FailureSummary: map[string]int{},
			FailedRuns:     []domain.FailedRun{},
		},
	}
}

func findRun(runs []domain.Run, id int) (domain.Run, bool) {
	for _, r := range runs {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Run{}, false
}

func pipelineName(name string, pipelineID int) string {
	if name == "" {
		return strconv.Itoa(pipelineID)
	}
	return name
}
