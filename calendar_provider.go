package main

import (
	"time"
)

type CalendarProvider interface {
	AddEvent(calendarID string, event *Event) (*Event, error)
	DeleteEvent(calendarID string, eventID string) error
	FreeBusy(calendarID string, timeMin, timeMax time.Time, timeZone string) ([]BusyInterval, error)
}

type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Attendees   []string
	// MeetLink is set by providers that attach a video conference.
	MeetLink string
}

// BusyInterval is a busy period as reported by the calendar backend.
type BusyInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}
