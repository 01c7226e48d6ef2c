package main

import (
	"context"
	"fmt"
)

// CalendarFactory builds a request-scoped calendar provider for a user.
type CalendarFactory struct {
	config *Config
	guard  *TokenGuard
}

func NewCalendarFactory(config *Config, guard *TokenGuard) *CalendarFactory {
	return &CalendarFactory{
		config: config,
		guard:  guard,
	}
}

// CreateCalendarProvider runs the token guard for userID and returns the
// configured provider bound to ctx.
func (cf *CalendarFactory) CreateCalendarProvider(ctx context.Context, userID string) (CalendarProvider, error) {
	switch cf.config.Calendar.Provider {
	case "", "google":
		client, err := cf.guard.Client(ctx, userID)
		if err != nil {
			return nil, err
		}
		return NewGoogleCalendarProvider(ctx, client, cf.config.Calendar.Endpoint)

	case "caldav":
		// No Google credentials involved, but the owner record must exist.
		if _, err := cf.guard.store.GetUser(ctx, userID); err != nil {
			return nil, err
		}
		server := cf.config.Calendar.CalDAV
		if server.ServerURL == "" {
			return nil, fmt.Errorf("CalDAV server_url is not configured")
		}
		return NewCalDAVProvider(ctx, server.ServerURL, server.Username, server.Password)

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cf.config.Calendar.Provider)
	}
}
