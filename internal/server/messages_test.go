package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbomlab/sbomdiff/pkg/models"
)

func TestParseRunPayload(t *testing.T) {
	msg := Message{
		Type:    TypeRun,
		Payload: json.RawMessage(`{"manifest": "projects:\n  - name: demo"}`),
	}

	payload, err := ParseRunPayload(msg)
	require.NoError(t, err)
	assert.Contains(t, payload.Manifest, "demo")
}

func TestParseRunPayloadInvalid(t *testing.T) {
	msg := Message{Type: TypeRun, Payload: json.RawMessage(`not json`)}
	_, err := ParseRunPayload(msg)
	assert.Error(t, err)
}

func TestNewSummaryMessageRoundTrip(t *testing.T) {
	summary := &models.BatchSummary{Projects: 3}
	msg := NewSummaryMessage(summary, true)
	assert.Equal(t, TypeSummary, msg.Type)

	var payload SummaryPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.True(t, payload.Final)
	assert.Equal(t, 3, payload.Summary.Projects)
}

func TestNewProjectReportMessage(t *testing.T) {
	report := &models.ProjectReport{Project: "demo"}
	msg := NewProjectReportMessage(report)
	assert.Equal(t, TypeProjectReport, msg.Type)

	var payload ProjectReportPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "demo", payload.Project)
	require.NotNil(t, payload.Report)
	assert.Equal(t, "demo", payload.Report.Project)
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage("batch failed", assert.AnError)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Contains(t, payload.Message, "batch failed")
	assert.Contains(t, payload.Message, assert.AnError.Error())
}
