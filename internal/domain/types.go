package domain

// JobStatus tracks the lifecycle of a single conversion job.
type JobStatus string

const (
	JobStatusIdle       JobStatus = "idle"
	JobStatusValidating JobStatus = "validating"
	JobStatusConverting JobStatus = "converting"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// AudiobookMeta holds the container-level tags written to the output file.
// Both fields are required before a conversion may start and are immutable
// for the lifetime of the job.
type AudiobookMeta struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	EnginePath   string `json:"enginePath"`
	AudioBitrate string `json:"audioBitrate"`
	TailLines    int    `json:"tailLines"`
	DarkMode     bool   `json:"darkMode"`
}

// Job stores the current job identity, lifecycle status, and destination.
type Job struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	OutputPath string    `json:"outputPath,omitempty"`
}
