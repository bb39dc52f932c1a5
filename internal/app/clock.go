package app

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/neomorfeo/rentiq/internal/domain"
)

// clock tells the services what time and calendar day it is.
type clock struct {
	now func() time.Time
	loc *time.Location
}

func defaultClock() clock {
	return clock{now: time.Now, loc: time.UTC}
}

func (c clock) today() civil.Date {
	return domain.Today(c.now(), c.loc)
}

// Option configures LeaseService and Activator.
type Option func(*clock)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *clock) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLocation sets the time zone that decides the calendar day.
func WithLocation(loc *time.Location) Option {
	return func(c *clock) {
		if loc != nil {
			c.loc = loc
		}
	}
}
