package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidEventType is returned when a string does not name a known event type.
var ErrInvalidEventType = errors.New("invalid event type")

// EventType is the closed set of things that can be logged. The zero value is
// not a valid event type.
type EventType uint8

const (
	EventSuccess EventType = iota + 1
	EventAccident
)

// Wire and storage values. These match the CHECK constraint on events.event_type.
const (
	wirePotty      = "potty"
	wireDirtyPants = "dirty_pants"
)

var eventTypeNames = map[EventType]string{
	EventSuccess:  wirePotty,
	EventAccident: wireDirtyPants,
}

var eventTypeByName = map[string]EventType{
	wirePotty:      EventSuccess,
	wireDirtyPants: EventAccident,
	"success":      EventSuccess,
	"accident":     EventAccident,
}

// EventTypes lists every valid event type in ascending wire order.
func EventTypes() []EventType {
	return []EventType{EventAccident, EventSuccess}
}

// ParseEventType maps a wire value (or its success/accident alias) to an EventType.
func ParseEventType(s string) (EventType, error) {
	if t, ok := eventTypeByName[s]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidEventType, s)
}

func (t EventType) Valid() bool {
	_, ok := eventTypeNames[t]
	return ok
}

// String returns the canonical wire value.
func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EventType(%d)", uint8(t))
}

func (t EventType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidEventType, uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *EventType) UnmarshalText(b []byte) error {
	parsed, err := ParseEventType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Event is a single immutable row in the events table.
type Event struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Type      EventType `json:"event_type"`
	CreatedAt time.Time `json:"created_at"`
}

// LogEventResponse is returned by POST /events.
type LogEventResponse struct {
	Message string `json:"message"`
	Event   *Event `json:"event"`
}

// DailyCount is the number of events of one type on one calendar date.
type DailyCount struct {
	EventType EventType `json:"event_type"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Count     int       `json:"count"`
}

// Summary is the 14-day rollup returned by GET /events/{userId}.
type Summary struct {
	DailyEvents []DailyCount      `json:"dailyEvents"`
	Totals      map[EventType]int `json:"totals"`
}
