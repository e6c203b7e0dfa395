// Package domain defines the CI/CD records consumed from the provider and the
// reports produced by the service.
package domain

const (
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"

	StatusAllSuccessful    = "All Builds Successful"
	StatusFailuresDetected = "Failures Detected"

	RecordTypeTask = "Task"
	IssueTypeError = "error"
	UnknownDefault = "Unknown"
)

// Project is an organization project as listed by the provider.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	State       string `json:"state,omitempty"`
}

// Pipeline is a pipeline definition within a project.
type Pipeline struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Folder string `json:"folder,omitempty"`
}

// PipelineSummary is a Pipeline enriched with the state of its latest run.
type PipelineSummary struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Folder       string `json:"folder,omitempty"`
	LatestStatus string `json:"latest_status"`
	LatestResult string `json:"latest_result"`
}

// PipelineRef is the pipeline a run belongs to.
type PipelineRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Run is one execution of a pipeline.
type Run struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	State       string       `json:"state"`
	Result      string       `json:"result"`
	CreatedDate string       `json:"createdDate"`
	Pipeline    *PipelineRef `json:"pipeline,omitempty"`
}

// Failed reports whether the run finished with result "failed".
func (r Run) Failed() bool { return r.Result == ResultFailed }

// PipelineName returns the embedded pipeline name, or "" when absent.
func (r Run) PipelineName() string {
	if r.Pipeline == nil {
		return ""
	}
	return r.Pipeline.Name
}

// BuildDefinition identifies the definition a build was queued from.
type BuildDefinition struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Build is a build record from the builds listing.
type Build struct {
	ID         int              `json:"id"`
	Result     string           `json:"result"`
	Status     string           `json:"status"`
	QueueTime  string           `json:"queueTime"`
	Definition *BuildDefinition `json:"definition,omitempty"`
}

// DefinitionName returns the definition name, or "Unknown".
func (b Build) DefinitionName() string {
	if b.Definition == nil || b.Definition.Name == "" {
		return UnknownDefault
	}
	return b.Definition.Name
}

// TaskRef names the task a timeline record executed.
type TaskRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// LogRef points at the log of a timeline record.
type LogRef struct {
	ID  int    `json:"id"`
	URL string `json:"url,omitempty"`
}

// Issue is a warning or error attached to a timeline record.
type Issue struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// TimelineRecord is a stage, job or task entry of a run's timeline. All
// fields are optional on the wire; use the accessors rather than chasing nil
// pointers.
type TimelineRecord struct {
	Type             string   `json:"type"`
	Result           string   `json:"result"`
	Name             string   `json:"name"`
	RefName          string   `json:"refName"`
	Task             *TaskRef `json:"task,omitempty"`
	Log              *LogRef  `json:"log,omitempty"`
	Issues           []Issue  `json:"issues,omitempty"`
	ErrorCount       int      `json:"errorCount"`
	ResultCode       string   `json:"resultCode"`
	CurrentOperation string   `json:"currentOperation"`
}

// TaskName returns the nested task name, or "".
func (r TimelineRecord) TaskName() string {
	if r.Task == nil {
		return ""
	}
	return r.Task.Name
}

// LogID returns the nested log id, or nil when the record has no log.
func (r TimelineRecord) LogID() *int {
	if r.Log == nil {
		return nil
	}
	id := r.Log.ID
	return &id
}

func (r TimelineRecord) HasIssues() bool { return len(r.Issues) > 0 }

func (r TimelineRecord) Failed() bool { return r.Result == ResultFailed }

// Timeline is the provider response for a run's timeline.
type Timeline struct {
	Records []TimelineRecord `json:"records"`
}

// FailedRun is the triaged detail of one failed run.
type FailedRun struct {
	RunID        int    `json:"run_id"`
	FailedTask   string `json:"failed_task"`
	ErrorMessage string `json:"error_message"`
	Timestamp    string `json:"timestamp"`
	LogsSummary  string `json:"logs_summary"`
	TaskType     string `json:"task_type"`
	LogID        *int   `json:"log_id"`
}

// FailureReport is the error-intelligence response for a pipeline.
type FailureReport struct {
	PipelineID     int            `json:"pipeline_id"`
	PipelineName   string         `json:"pipeline_name"`
	Status         string         `json:"status"`
	FailureSummary map[string]int `json:"failure_summary"`
	FailedRuns     []FailedRun    `json:"failed_runs"`
	AISummary      *string        `json:"ai_summary"`
}

// AnalyticsReport summarizes recent builds of a project. BuildTrend keys are
// calendar days (YYYY-MM-DD); encoding/json writes them in ascending order.
type AnalyticsReport struct {
	TotalRuns           int            `json:"total_runs"`
	SuccessCount        int            `json:"success_count"`
	FailureCount        int            `json:"failure_count"`
	SuccessRate         float64        `json:"success_rate"`
	BuildTrend          map[string]int `json:"build_trend"`
	FailureDistribution map[string]int `json:"failure_distribution"`
	CodePushFrequency   map[string]int `json:"code_push_frequency"`
}
