package clock

import (
	"fmt"
	"time"
)

const (
	DefaultZone = "America/Denver"
	DateLayout  = "2006-01-02"
)

// Clock resolves the civil date used to partition kudos into days.
type Clock struct {
	loc *time.Location
	Now func() time.Time
}

func New(zone string) (*Clock, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("clock: load location %q: %w", zone, err)
	}
	return &Clock{loc: loc, Now: time.Now}, nil
}

// Today returns the current civil date as YYYY-MM-DD.
func (c *Clock) Today() string {
	return c.Now().In(c.loc).Format(DateLayout)
}

func (c *Clock) Location() *time.Location {
	return c.loc
}
