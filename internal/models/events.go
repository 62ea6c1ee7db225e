package models

import "time"

// Event types
const (
	EventTypeAlertCreated        = "ALERT_CREATED"
	EventTypePredictionRequested = "PREDICTION_REQUESTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertCreatedEvent published for every alert the generator persists
type AlertCreatedEvent struct {
	BaseEvent
	AlertID    int64     `json:"alert_id"`
	ProductID  int64     `json:"product_id"`
	AlertType  AlertType `json:"alert_type"`
	Message    string    `json:"message"`
	StockLevel int       `json:"stock_level"`
	Policy     string    `json:"policy"`
}

// PredictionRequestedEvent asks the refresh worker to re-forecast one product
type PredictionRequestedEvent struct {
	BaseEvent
	ProductID   int64  `json:"product_id"`
	RequestedBy string `json:"requested_by,omitempty"`
}
