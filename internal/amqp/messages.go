package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ImportRequest asks a worker to load the CSV extracts from DataDir into SQLite.
type ImportRequest struct {
	ID          uuid.UUID `json:"id"`
	DataDir     string    `json:"data_dir"`
	PathMode    string    `json:"path_mode"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewImportRequest creates a request with a fresh ID.
func NewImportRequest(dataDir, pathMode string) *ImportRequest {
	return &ImportRequest{
		ID:          uuid.New(),
		DataDir:     dataDir,
		PathMode:    pathMode,
		RequestedAt: time.Now().UTC(),
	}
}

// Validate checks the fields a worker needs.
func (m *ImportRequest) Validate() error {
	if m.ID == uuid.Nil {
		return errors.New("import request has no id")
	}
	if m.DataDir == "" {
		return errors.New("import request has no data directory")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ImportRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportRequestFromJSON decodes and validates a message body.
func ImportRequestFromJSON(data []byte) (*ImportRequest, error) {
	var msg ImportRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
