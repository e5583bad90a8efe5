package events

// Entity types
const (
	EntityJob   = "job"
	EntityBatch = "batch"
)

// Event type constants
const (
	EventBatchStarted  = "batch.started"
	EventBatchFinished = "batch.finished"
	EventJobStarted    = "job.started"
	EventJobCompleted  = "job.completed"
	EventJobFailed     = "job.failed"
	EventJobSkipped    = "job.skipped"
	EventJobRetried    = "job.retried"
)

// BatchStarted is emitted once per run after jobs have been registered.
type BatchStarted struct {
	BaseEvent
	Files       int `json:"files"`
	Concurrency int `json:"concurrency"`
}

// BatchFinished is emitted when a run ends, including cancelled runs.
type BatchFinished struct {
	BaseEvent
	Total      int   `json:"total"`
	Succeeded  int   `json:"succeeded"`
	Failed     int   `json:"failed"`
	Skipped    int   `json:"skipped"`
	Cancelled  bool  `json:"cancelled"`
	DurationMS int64 `json:"duration_ms"`
}

// JobStarted is emitted when a worker picks a job up.
type JobStarted struct {
	BaseEvent
	RunID string `json:"run_id"`
	Path  string `json:"path"`
}

// JobCompleted is emitted when a file has been resolved and placed.
type JobCompleted struct {
	BaseEvent
	RunID      string `json:"run_id"`
	Path       string `json:"path"`
	Number     string `json:"number"`
	Source     string `json:"source"`
	OutputPath string `json:"output_path"`
}

// JobFailed is emitted when parsing, resolution or placement fails.
type JobFailed struct {
	BaseEvent
	RunID  string `json:"run_id"`
	Path   string `json:"path"`
	Stage  string `json:"stage"` // parse, resolve, apply
	Reason string `json:"reason"`
}

// JobSkipped is emitted for files a run decided not to process.
type JobSkipped struct {
	BaseEvent
	RunID  string `json:"run_id"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// JobRetried is emitted when an operator or a forced run resets a job to pending.
type JobRetried struct {
	BaseEvent
	Path string `json:"path"`
	From string `json:"from"`
}
