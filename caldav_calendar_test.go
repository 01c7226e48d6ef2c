package main

import (
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func veventObject(start, end time.Time, props map[string]string) caldav.CalendarObject {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, start.Format(time.RFC3339))
	event.Props.SetDateTime(ical.PropDateTimeStart, start)
	if !end.IsZero() {
		event.Props.SetDateTime(ical.PropDateTimeEnd, end)
	}
	for name, value := range props {
		event.Props.SetText(name, value)
	}

	cal := ical.NewCalendar()
	cal.Children = append(cal.Children, event.Component)
	return caldav.CalendarObject{Data: cal}
}

func TestBusyFromCalendarObjects(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	objects := []caldav.CalendarObject{
		veventObject(at(14, 0), at(15, 0), nil),
		veventObject(at(9, 0), at(10, 0), nil),
		veventObject(at(11, 0), at(12, 0), map[string]string{ical.PropStatus: "CANCELLED"}),
		veventObject(at(12, 0), at(13, 0), map[string]string{"TRANSP": "TRANSPARENT"}),
		veventObject(at(23, 30), at(25, 0), nil),
		veventObject(at(-1, 0), at(1, 0), nil),
		veventObject(at(16, 0), time.Time{}, nil),
		{Data: nil},
	}

	busy := busyFromCalendarObjects(objects, day, day.Add(24*time.Hour), time.UTC)

	assert.Equal(t, []BusyInterval{
		{Start: "2024-05-01T00:00:00Z", End: "2024-05-01T01:00:00Z"},
		{Start: "2024-05-01T09:00:00Z", End: "2024-05-01T10:00:00Z"},
		{Start: "2024-05-01T14:00:00Z", End: "2024-05-01T15:00:00Z"},
		{Start: "2024-05-01T23:30:00Z", End: "2024-05-02T00:00:00Z"},
	}, busy)
}

func TestBusyFromCalendarObjects_Empty(t *testing.T) {
	busy := busyFromCalendarObjects(nil, time.Now(), time.Now().Add(time.Hour), time.UTC)
	assert.NotNil(t, busy)
	assert.Empty(t, busy)
}

func TestNewICalEvent(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	cal := newICalEvent("uid-1", &Event{
		Summary:   "Site visit",
		Start:     start,
		End:       start.Add(time.Hour),
		Attendees: []string{"guest@example.com", "second@example.com"},
	}, start)

	assert.Equal(t, "2.0", getTextProp(cal.Props, ical.PropVersion))
	assert.Equal(t, caldavProductID, getTextProp(cal.Props, ical.PropProductID))
	require.Len(t, cal.Children, 1)

	event := cal.Children[0]
	assert.Equal(t, ical.CompEvent, event.Name)
	assert.Equal(t, "uid-1", getTextProp(event.Props, ical.PropUID))
	assert.Equal(t, "Site visit", getTextProp(event.Props, ical.PropSummary))
	assert.Nil(t, event.Props.Get(ical.PropDescription))

	gotStart, err := event.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	require.NoError(t, err)
	assert.True(t, start.Equal(gotStart))

	attendees := event.Props.Values(ical.PropAttendee)
	require.Len(t, attendees, 2)
	assert.Equal(t, "mailto:guest@example.com", attendees[0].Value)
	assert.Equal(t, "TRUE", attendees[0].Params.Get("RSVP"))
}
