package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventPassportRecognized = "passport.recognized"
	EventPassportFailed     = "passport.failed"
	EventContractGenerated  = "contract.generated"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// PassportRecognizedEvent is published when a recognition job finishes.
// It carries diagnostics only, never passport values.
type PassportRecognizedEvent struct {
	JobID            string   `json:"job_id"`
	UserID           string   `json:"user_id,omitempty"`
	Processor        string   `json:"processor"`
	Complete         bool     `json:"complete"`
	RecognizedFields []string `json:"recognized_fields"`
	MissingFields    []string `json:"missing_fields"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}

// PassportFailedEvent is published when a recognition job fails outright.
type PassportFailedEvent struct {
	JobID     string `json:"job_id"`
	UserID    string `json:"user_id,omitempty"`
	ErrorCode string `json:"error_code"`
}

// ContractGeneratedEvent is published after contract documents are written
// and recorded in the registry.
type ContractGeneratedEvent struct {
	ContractNumber   string    `json:"contract_number"`
	UserID           string    `json:"user_id"`
	Client           string    `json:"client"`
	TotalAmount      int64     `json:"total_amount"`
	FirstPaymentDate string    `json:"first_payment_date"`
	Payments         int       `json:"payments"`
	Files            []string  `json:"files"`
	GeneratedAt      time.Time `json:"generated_at"`
}
