package amqp

import (
	"encoding/json"
	"time"
)

// TableChangedMessage announces that one process rewrote or appended to a
// table. Peers react by purging their read cache; Origin lets a process
// recognize and skip its own broadcasts.
type TableChangedMessage struct {
	Origin    string    `json:"origin"`
	Table     string    `json:"table"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTableChangedMessage(origin, table, op string) *TableChangedMessage {
	return &TableChangedMessage{
		Origin:    origin,
		Table:     table,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m *TableChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TableChangedMessageFromJSON(data []byte) (*TableChangedMessage, error) {
	var msg TableChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
