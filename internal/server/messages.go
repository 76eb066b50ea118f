package server

import (
	"encoding/json"
	"fmt"

	"github.com/sbomlab/sbomdiff/internal/analysis"
	"github.com/sbomlab/sbomdiff/pkg/models"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// Client -> Server
	TypeRun  MessageType = "run"  // Client sends a batch manifest to run
	TypePing MessageType = "ping" // Keep-alive

	// Server -> Client
	TypeProgress      MessageType = "progress"       // Batch progress updates
	TypeLog           MessageType = "log"            // Log messages for terminal
	TypeProjectStatus MessageType = "project_status" // Individual project status update
	TypeProjectReport MessageType = "project_report" // Per-project comparison report
	TypeProjectTriage MessageType = "project_triage" // Per-project AI triage assessment
	TypeSummary       MessageType = "summary"        // Batch summary (also sent as progress snapshots)
	TypeComplete      MessageType = "complete"       // Batch complete
	TypeError         MessageType = "error"          // Error message
)

// Message is the base WebSocket message structure
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RunPayload sent by client to start a batch run
type RunPayload struct {
	Manifest string `json:"manifest"` // Raw manifest YAML content
}

// ProgressPayload for progress bar updates
type ProgressPayload struct {
	Percent int    `json:"percent"` // 0-100
	Stage   string `json:"stage"`   // "assemble", "compare", "summarize", "triage"
	Message string `json:"message"` // Human-readable status
}

// LogPayload for terminal output
type LogPayload struct {
	Message string `json:"message"`         // Log message
	Level   string `json:"level,omitempty"` // "info", "success", "warning", "error"
}

// ProjectStatusPayload for individual project updates
type ProjectStatusPayload struct {
	Project string `json:"project"`
	Status  string `json:"status"` // "pending", "comparing", "complete"
}

// ProjectReportPayload carries one finished project report
type ProjectReportPayload struct {
	Project string                `json:"project"`
	Report  *models.ProjectReport `json:"report"`
}

// ProjectTriagePayload carries the AI triage assessment for a project
type ProjectTriagePayload struct {
	Project    string                           `json:"project"`
	Assessment *analysis.DisagreementAssessment `json:"assessment"`
}

// SummaryPayload carries a batch summary snapshot or the final summary
type SummaryPayload struct {
	Final   bool                 `json:"final"`
	Summary *models.BatchSummary `json:"summary"`
}

// CompletePayload sent when the batch is done
type CompletePayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorPayload for error messages
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Helper functions to create messages

func NewProgressMessage(percent int, stage, message string) Message {
	payload := ProgressPayload{
		Percent: percent,
		Stage:   stage,
		Message: message,
	}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeProgress, Payload: payloadBytes}
}

func NewLogMessage(message, level string) Message {
	payload := LogPayload{
		Message: message,
		Level:   level,
	}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeLog, Payload: payloadBytes}
}

func NewProjectStatusMessage(project, status string) Message {
	payload := ProjectStatusPayload{
		Project: project,
		Status:  status,
	}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeProjectStatus, Payload: payloadBytes}
}

func NewProjectReportMessage(report *models.ProjectReport) Message {
	payload := ProjectReportPayload{
		Project: report.Project,
		Report:  report,
	}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeProjectReport, Payload: payloadBytes}
}

func NewProjectTriageMessage(project string, assessment *analysis.DisagreementAssessment) Message {
	payload := ProjectTriagePayload{
		Project:    project,
		Assessment: assessment,
	}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeProjectTriage, Payload: payloadBytes}
}

func NewSummaryMessage(summary *models.BatchSummary, final bool) Message {
	payload := SummaryPayload{
		Final:   final,
		Summary: summary,
	}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeSummary, Payload: payloadBytes}
}

func NewCompleteMessage(success bool, message string) Message {
	payload := CompletePayload{
		Success: success,
		Message: message,
	}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeComplete, Payload: payloadBytes}
}

func NewErrorMessage(message string, err error) Message {
	errMsg := message
	if err != nil {
		errMsg = fmt.Sprintf("%s: %v", message, err)
	}
	payload := ErrorPayload{Message: errMsg}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeError, Payload: payloadBytes}
}

// ParseRunPayload extracts the run payload from a message
func ParseRunPayload(msg Message) (*RunPayload, error) {
	var payload RunPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse run payload: %w", err)
	}
	return &payload, nil
}
