package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// CalendarGateway performs calendar operations on the configured calendar on
// behalf of the configured owner.
type CalendarGateway struct {
	factory *CalendarFactory
	config  CalendarConfig
}

func NewCalendarGateway(factory *CalendarFactory, config CalendarConfig) *CalendarGateway {
	return &CalendarGateway{factory: factory, config: config}
}

type CreateEventRequest struct {
	StartTime     any    `json:"startTime"`
	AttendeeEmail string `json:"attendeeEmail"`
	Summary       string `json:"summary"`
}

type CreateEventResponse struct {
	EventID  string `json:"eventId"`
	MeetLink string `json:"meetLink,omitempty"`
}

type DeleteEventRequest struct {
	EventID any `json:"eventId"`
}

type DeleteEventResponse struct {
	Success bool   `json:"success"`
	EventID string `json:"eventId"`
}

type FreeBusyRequest struct {
	StartDate any `json:"startDate"`
	EndDate   any `json:"endDate"`
}

type FreeBusyResponse struct {
	BusyTimes []BusyInterval `json:"busyTimes"`
}

func (g *CalendarGateway) CreateEvent(ctx context.Context, req *CreateEventRequest) (*CreateEventResponse, error) {
	if isBlank(req.StartTime) || req.AttendeeEmail == "" {
		return nil, badRequest("Missing parameters")
	}
	start, err := parseInstant(req.StartTime)
	if err != nil {
		log.Debug().Err(err).Interface("startTime", req.StartTime).Msg("invalid startTime")
		return nil, badRequest("Invalid startTime format")
	}

	summary := req.Summary
	if summary == "" {
		summary = g.config.DefaultSummary
	}

	provider, err := g.factory.CreateCalendarProvider(ctx, g.config.OwnerUserID)
	if err != nil {
		return nil, err
	}

	created, err := provider.AddEvent(g.config.CalendarID, &Event{
		Summary:   summary,
		Start:     start,
		End:       start.Add(time.Hour),
		TimeZone:  g.config.TimeZone,
		Attendees: []string{req.AttendeeEmail},
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("event_id", created.ID).Str("meet_link", created.MeetLink).Msg("event created")
	return &CreateEventResponse{EventID: created.ID, MeetLink: created.MeetLink}, nil
}

func (g *CalendarGateway) DeleteEvent(ctx context.Context, req *DeleteEventRequest) (*DeleteEventResponse, error) {
	if isBlank(req.EventID) {
		return nil, badRequest("Missing eventId")
	}
	eventID, ok := req.EventID.(string)
	if !ok || strings.TrimSpace(eventID) == "" {
		return nil, badRequest("eventId must be a non-empty string")
	}

	provider, err := g.factory.CreateCalendarProvider(ctx, g.config.OwnerUserID)
	if err != nil {
		return nil, err
	}
	if err := provider.DeleteEvent(g.config.CalendarID, eventID); err != nil {
		return nil, err
	}

	log.Info().Str("event_id", eventID).Msg("event deleted")
	return &DeleteEventResponse{Success: true, EventID: eventID}, nil
}

func (g *CalendarGateway) QueryFreeBusy(ctx context.Context, req *FreeBusyRequest) (*FreeBusyResponse, error) {
	if isBlank(req.StartDate) || isBlank(req.EndDate) {
		return nil, badRequest("Missing startDate or endDate")
	}
	start, err := parseInstant(req.StartDate)
	if err != nil {
		return nil, badRequest("Invalid date format")
	}
	end, err := parseInstant(req.EndDate)
	if err != nil {
		return nil, badRequest("Invalid date format")
	}

	provider, err := g.factory.CreateCalendarProvider(ctx, g.config.OwnerUserID)
	if err != nil {
		return nil, err
	}
	busy, err := provider.FreeBusy(g.config.CalendarID, start, end, g.config.TimeZone)
	if err != nil {
		return nil, err
	}
	if busy == nil {
		busy = []BusyInterval{}
	}
	return &FreeBusyResponse{BusyTimes: busy}, nil
}

// isBlank reports whether a decoded JSON value counts as not supplied.
func isBlank(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case float64:
		return v == 0 || math.IsNaN(v)
	}
	return false
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseInstant accepts an RFC 3339 timestamp, a zone-less date-time or date
// taken as UTC, or a number of milliseconds since the Unix epoch.
func parseInstant(v any) (time.Time, error) {
	switch v := v.(type) {
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range instantLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised instant %q", v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return time.Time{}, errors.New("instant is not finite")
		}
		return time.UnixMilli(int64(v)).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported instant type %T", v)
	}
}
