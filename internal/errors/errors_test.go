package errors

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingReporter captures reported errors for assertions
type recordingReporter struct {
	mu       sync.Mutex
	reported []*EnhancedError
}

func (r *recordingReporter) ReportError(ee *EnhancedError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reported = append(r.reported, ee)
	ee.MarkReported()
}

func (r *recordingReporter) IsEnabled() bool { return true }

func (r *recordingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reported)
}

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := New(fmt.Errorf("test error")).Build()

	assert.Equal(t, "test error", ee.Error())
	assert.Equal(t, ComponentUnknown, ee.GetComponent())
	assert.Equal(t, CategoryGeneric, ee.Category)
}

func TestBuilderContextAndCategory(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := Newf("recording %s missing", "abc").
		Component("datastore").
		Category(CategoryNotFound).
		Context("id", "abc").
		Build()

	assert.Equal(t, "recording abc missing", ee.Error())
	assert.Equal(t, "datastore", ee.GetComponent())
	assert.True(t, IsNotFound(ee))
	assert.False(t, IsValidation(ee))
	assert.Equal(t, "abc", ee.GetContext()["id"])

	// the returned context is a copy
	ctx := ee.GetContext()
	ctx["id"] = "changed"
	assert.Equal(t, "abc", ee.GetContext()["id"])
}

func TestCategoryInheritedFromWrappedError(t *testing.T) {
	SetTelemetryReporter(nil)

	inner := ValidationError("bad input")
	outer := New(fmt.Errorf("create failed: %w", inner)).Build()

	assert.Equal(t, CategoryValidation, outer.Category)
	assert.True(t, IsValidation(outer))
	assert.True(t, Is(outer, inner))
}

func TestNotFoundHelpers(t *testing.T) {
	SetTelemetryReporter(nil)

	err := fmt.Errorf("lookup: %w", NotFoundError("recording", "42"))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(fmt.Errorf("plain")))
}

func TestReporterSkipsClientErrors(t *testing.T) {
	reporter := &recordingReporter{}
	SetTelemetryReporter(reporter)
	t.Cleanup(func() { SetTelemetryReporter(nil) })

	_ = ValidationError("bad request")
	_ = NotFoundError("recording", "x")
	assert.Equal(t, 0, reporter.count())

	ee := Newf("speech provider unavailable").Category(CategoryIntegration).Build()
	assert.Equal(t, 1, reporter.count())
	assert.True(t, ee.IsReported())
	assert.NotEqual(t, ComponentUnknown, ee.GetComponent(), "component should be detected from the caller")
}

func TestScrubMessage(t *testing.T) {
	scrubbed := scrubMessage("Error at https://api.example.com/v1?api_key=secret123&token=abc")
	assert.Equal(t, "Error at https://api.example.com/v1?[REDACTED]", scrubbed)

	scrubbed = scrubMessage("Config error: password=hunter2 is invalid")
	assert.Contains(t, scrubbed, "[SECRET_REDACTED]")
	assert.NotContains(t, scrubbed, "hunter2")

	payload := strings.Repeat("QUJD", 40)
	scrubbed = scrubMessage("decode failed for " + payload)
	assert.Contains(t, scrubbed, "[AUDIO_REDACTED]")
	assert.NotContains(t, scrubbed, payload)
}

func TestGenerateErrorTitle(t *testing.T) {
	SetTelemetryReporter(nil)

	ee := Newf("boom").
		Component("transcription").
		Category(CategoryIntegration).
		Context("operation", "speech_to_text").
		Build()

	assert.Equal(t, "Transcription Upstream Error Speech To Text", generateErrorTitle(ee))
}
