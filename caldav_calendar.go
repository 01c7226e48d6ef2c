package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
)

const caldavProductID = "-//gcalgate//EN"

type CalDAVProvider struct {
	client    *caldav.Client
	ctx       context.Context
	serverURL string
}

func NewCalDAVProvider(ctx context.Context, serverURL, username, password string) (*CalDAVProvider, error) {
	baseURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid CalDAV server URL: %w", err)
	}

	var httpClient webdav.HTTPClient = http.DefaultClient
	if username != "" && password != "" {
		httpClient = webdav.HTTPClientWithBasicAuth(httpClient, username, password)
	}

	c, err := caldav.NewClient(httpClient, baseURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create CalDAV client: %w", err)
	}

	return &CalDAVProvider{
		client:    c,
		ctx:       ctx,
		serverURL: serverURL,
	}, nil
}

func (c *CalDAVProvider) AddEvent(calendarID string, event *Event) (*Event, error) {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar URL: %w", err)
	}

	eventUID := uuid.NewString()
	cal := newICalEvent(eventUID, event, time.Now())

	path := strings.TrimRight(calURL.Path, "/") + "/" + eventUID + ".ics"
	if _, err := c.client.PutCalendarObject(c.ctx, path, cal); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	created := *event
	created.ID = eventUID
	return &created, nil
}

func (c *CalDAVProvider) DeleteEvent(calendarID string, eventID string) error {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return fmt.Errorf("invalid calendar URL: %w", err)
	}

	path := strings.TrimRight(calURL.Path, "/") + "/" + url.PathEscape(eventID) + ".ics"
	if err := c.client.RemoveAll(c.ctx, path); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func (c *CalDAVProvider) FreeBusy(calendarID string, timeMin, timeMax time.Time, timeZone string) ([]BusyInterval, error) {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar URL: %w", err)
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     "VCALENDAR",
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: "VCALENDAR",
			Comps: []caldav.CompFilter{{
				Name:  "VEVENT",
				Start: timeMin,
				End:   timeMax,
			}},
		},
	}

	objects, err := c.client.QueryCalendar(c.ctx, calURL.Path, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		loc = time.UTC
	}
	return busyFromCalendarObjects(objects, timeMin, timeMax, loc), nil
}

func newICalEvent(uid string, event *Event, now time.Time) *ical.Calendar {
	icalEvent := ical.NewEvent()
	icalEvent.Props.SetText(ical.PropUID, uid)
	icalEvent.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	icalEvent.Props.SetText(ical.PropSummary, event.Summary)
	if event.Description != "" {
		icalEvent.Props.SetText(ical.PropDescription, event.Description)
	}
	icalEvent.Props.SetDateTime(ical.PropDateTimeStart, event.Start.UTC())
	icalEvent.Props.SetDateTime(ical.PropDateTimeEnd, event.End.UTC())
	icalEvent.Props.SetText(ical.PropStatus, "CONFIRMED")
	for _, email := range event.Attendees {
		attendee := ical.NewProp(ical.PropAttendee)
		attendee.Value = "mailto:" + email
		attendee.Params.Set("RSVP", "TRUE")
		icalEvent.Props.Add(attendee)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, caldavProductID)
	cal.Children = append(cal.Children, icalEvent.Component)
	return cal
}

// busyFromCalendarObjects collects the opaque, non-cancelled VEVENTs that
// overlap [timeMin, timeMax), clipped to the window and sorted by start.
func busyFromCalendarObjects(objects []caldav.CalendarObject, timeMin, timeMax time.Time, loc *time.Location) []BusyInterval {
	type span struct{ start, end time.Time }
	var spans []span

	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, comp := range obj.Data.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			if strings.EqualFold(getTextProp(comp.Props, ical.PropStatus), "CANCELLED") ||
				strings.EqualFold(getTextProp(comp.Props, "TRANSP"), "TRANSPARENT") {
				continue
			}

			start, err := comp.Props.DateTime(ical.PropDateTimeStart, loc)
			if err != nil || start.IsZero() {
				continue
			}
			end, err := comp.Props.DateTime(ical.PropDateTimeEnd, loc)
			if err != nil || end.IsZero() {
				continue
			}

			if start.Before(timeMin) {
				start = timeMin
			}
			if end.After(timeMax) {
				end = timeMax
			}
			if !end.After(start) {
				continue
			}
			spans = append(spans, span{start, end})
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })

	result := make([]BusyInterval, 0, len(spans))
	for _, s := range spans {
		result = append(result, BusyInterval{
			Start: s.start.UTC().Format(time.RFC3339),
			End:   s.end.UTC().Format(time.RFC3339),
		})
	}
	return result
}

func getTextProp(props ical.Props, name string) string {
	prop := props.Get(name)
	if prop == nil {
		return ""
	}
	return prop.Value
}
