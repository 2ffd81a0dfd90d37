package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"echocheck/internal/analysis"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProbing    Status = "probing"
	StatusProbed     Status = "probed"
	StatusExtracting Status = "extracting"
	StatusExtracted  Status = "extracted"
	StatusAnalyzing  Status = "analyzing"
	StatusAnalyzed   Status = "analyzed"
	StatusEvaluating Status = "evaluating"
	StatusEvaluated  Status = "evaluated"
	StatusRendering  Status = "rendering"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusReview     Status = "review"
)

// UserStopReason is the review reason set when a user explicitly stops an item.
const UserStopReason = "Stop requested by user"

// DaemonStopReason is the error message set when items are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusProbing,
	StatusProbed,
	StatusExtracting,
	StatusExtracted,
	StatusAnalyzing,
	StatusAnalyzed,
	StatusEvaluating,
	StatusEvaluated,
	StatusRendering,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusProbing:    {},
	StatusExtracting: {},
	StatusAnalyzing:  {},
	StatusEvaluating: {},
	StatusRendering:  {},
}

type statusTransition struct {
	from Status
	to   Status
}

// stageRollbackTransitions returns interrupted processing items to the start
// of their current stage rather than the start of the pipeline.
var stageRollbackTransitions = []statusTransition{
	{from: StatusProbing, to: StatusPending},
	{from: StatusExtracting, to: StatusProbed},
	{from: StatusAnalyzing, to: StatusExtracted},
	{from: StatusEvaluating, to: StatusAnalyzed},
	{from: StatusRendering, to: StatusEvaluated},
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// Item represents an uploaded media file moving through the analysis pipeline.
type Item struct {
	ID              int64
	UserID          int64
	FileName        string
	DisplayTitle    string
	FileType        string
	FileSize        int64
	SourcePath      string
	Status          Status
	MediaInfoJSON   string
	AudioPath       string
	FramesDir       string
	FrameCount      int
	AudioResultJSON string
	VideoResultJSON string
	AudioScore      *float64
	VideoScore      *float64
	TruthScore      *float64
	Verdict         string
	AnomaliesJSON   string
	SpectrogramPath string
	ReportPath      string
	AnalysisSeconds float64
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	LastHeartbeat   *time.Time
	NeedsReview     bool
	ReviewReason    string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether an item has finished the pipeline one way or another.
func (i Item) IsTerminal() bool {
	switch i.Status {
	case StatusCompleted, StatusFailed, StatusReview:
		return true
	}
	return false
}

// IsUserStopReason reports whether a review reason represents a user-initiated stop.
func IsUserStopReason(reason string) bool {
	return strings.EqualFold(strings.TrimSpace(reason), UserStopReason)
}

// InitProgress resets progress fields at the start of a new stage.
// ProgressMessage is set to message, ProgressPercent is reset to 0,
// and ErrorMessage is cleared.
func (i *Item) InitProgress(stage, message string) {
	if i.ProgressStage == "" {
		i.ProgressStage = stage
	}
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.ErrorMessage = ""
}

// SetProgress updates all three progress fields together.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (i *Item) SetProgressComplete(stage, message string) {
	i.SetProgress(stage, message, 100)
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressPercent = 0
	i.ProgressMessage = message
	i.LastHeartbeat = nil
	i.ProgressStage = "Failed"
}

// SetAudioResult stores a per-modality audio classifier result on the item.
func (i *Item) SetAudioResult(result *analysis.ModalityResult) error {
	encoded, err := encodeModality(result)
	if err != nil {
		return err
	}
	i.AudioResultJSON = encoded
	return nil
}

// AudioResult decodes the stored audio classifier result, or nil when absent.
func (i *Item) AudioResult() (*analysis.ModalityResult, error) {
	return decodeModality(i.AudioResultJSON)
}

// SetVideoResult stores a per-modality video classifier result on the item.
func (i *Item) SetVideoResult(result *analysis.ModalityResult) error {
	encoded, err := encodeModality(result)
	if err != nil {
		return err
	}
	i.VideoResultJSON = encoded
	return nil
}

// VideoResult decodes the stored video classifier result, or nil when absent.
func (i *Item) VideoResult() (*analysis.ModalityResult, error) {
	return decodeModality(i.VideoResultJSON)
}

// SetAnomalies stores the evaluated anomaly findings on the item.
func (i *Item) SetAnomalies(anomalies []analysis.Anomaly) error {
	if len(anomalies) == 0 {
		i.AnomaliesJSON = "[]"
		return nil
	}
	payload, err := json.Marshal(anomalies)
	if err != nil {
		return fmt.Errorf("marshal anomalies: %w", err)
	}
	i.AnomaliesJSON = string(payload)
	return nil
}

// Anomalies decodes the stored anomaly findings.
func (i *Item) Anomalies() ([]analysis.Anomaly, error) {
	trimmed := strings.TrimSpace(i.AnomaliesJSON)
	if trimmed == "" {
		return nil, nil
	}
	var anomalies []analysis.Anomaly
	if err := json.Unmarshal([]byte(trimmed), &anomalies); err != nil {
		return nil, fmt.Errorf("unmarshal anomalies: %w", err)
	}
	return anomalies, nil
}

func encodeModality(result *analysis.ModalityResult) (string, error) {
	if result == nil {
		return "", nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal modality result: %w", err)
	}
	return string(payload), nil
}

func decodeModality(raw string) (*analysis.ModalityResult, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	var result analysis.ModalityResult
	if err := json.Unmarshal([]byte(trimmed), &result); err != nil {
		return nil, fmt.Errorf("unmarshal modality result: %w", err)
	}
	return &result, nil
}
