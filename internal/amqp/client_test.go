package amqp

import (
	"testing"
	"time"
)

func TestNewTableChangedMessage(t *testing.T) {
	msg := NewTableChangedMessage("proc-1", "ledger", "append")

	if msg.Origin != "proc-1" || msg.Table != "ledger" || msg.Op != "append" {
		t.Errorf("message = %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestTableChangedMessage_JSON(t *testing.T) {
	msg := &TableChangedMessage{
		Origin:    "proc-1",
		Table:     "budgets_monthly",
		Op:        "write",
		Timestamp: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := TableChangedMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("TableChangedMessageFromJSON() error = %v", err)
	}

	if parsed.Origin != msg.Origin || parsed.Table != msg.Table || parsed.Op != msg.Op {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestTableChangedMessage_InvalidJSON(t *testing.T) {
	if _, err := TableChangedMessageFromJSON([]byte(`{"table": 42`)); err == nil {
		t.Error("TableChangedMessageFromJSON() should fail with invalid JSON")
	}
}
