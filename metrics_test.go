package sublinear

import (
	"testing"
	"time"
)

func TestMetricsOperations(t *testing.T) {
	m := NewMetrics()
	m.RecordOperation("issues", 2*time.Millisecond)
	m.RecordOperation("issues", 4*time.Millisecond)
	m.RecordOperation("viewer", time.Millisecond)

	snap := m.Snapshot()
	if snap.Operations["issues"] != 2 {
		t.Errorf("issues = %d, want 2", snap.Operations["issues"])
	}
	if snap.Operations["viewer"] != 1 {
		t.Errorf("viewer = %d, want 1", snap.Operations["viewer"])
	}
	if got := snap.AvgLatencyMs["issues"]; got != 3 {
		t.Errorf("avg issues latency = %v, want 3", got)
	}
}

func TestMetricsErrorsByKind(t *testing.T) {
	m := NewMetrics()
	m.RecordError(ErrValidation)
	m.RecordError(ErrValidation)
	m.RecordError(ErrConflict)
	m.RecordAuthRejection()

	snap := m.Snapshot()
	if snap.Errors["INVALID_INPUT"] != 2 {
		t.Errorf("INVALID_INPUT = %d, want 2", snap.Errors["INVALID_INPUT"])
	}
	if snap.Errors["CONFLICT"] != 1 {
		t.Errorf("CONFLICT = %d, want 1", snap.Errors["CONFLICT"])
	}
	if snap.AuthRejections != 1 {
		t.Errorf("auth rejections = %d, want 1", snap.AuthRejections)
	}
}

func TestMetricsSnapshotIsACopy(t *testing.T) {
	m := NewMetrics()
	m.RecordOperation("viewer", 0)
	snap := m.Snapshot()
	m.RecordOperation("viewer", 0)

	if snap.Operations["viewer"] != 1 {
		t.Errorf("snapshot changed after further recording: %d", snap.Operations["viewer"])
	}
}
