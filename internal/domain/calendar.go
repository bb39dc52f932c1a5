package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// CodeTimeFormatInvalid is the client code for malformed lease dates.
const CodeTimeFormatInvalid = "TIME_FORMAT_INVALID"

// Term is the inclusive date range covered by a lease.
type Term struct {
	Start civil.Date
	End   civil.Date
}

// MonthTerm spans from the first day of startMonth to the last day of endMonth
// within year. Months are calendar numbers 1..12.
func MonthTerm(year, startMonth, endMonth int) (Term, error) {
	if startMonth < 1 || startMonth > 12 {
		return Term{}, &ValidationError{Field: "start_month", Reason: "must be between 1 and 12", Code: CodeTimeFormatInvalid}
	}
	if endMonth < 1 || endMonth > 12 {
		return Term{}, &ValidationError{Field: "end_month", Reason: "must be between 1 and 12", Code: CodeTimeFormatInvalid}
	}

	term := Term{
		Start: civil.Date{Year: year, Month: time.Month(startMonth), Day: 1},
		// Day 0 of the following month is the last day of endMonth.
		End: civil.DateOf(time.Date(year, time.Month(endMonth)+1, 0, 0, 0, 0, 0, time.UTC)),
	}
	if !term.End.After(term.Start) {
		return Term{}, &ValidationError{Field: "end_month", Reason: "must not be before start_month", Code: CodeTimeFormatInvalid}
	}
	return term, nil
}

// Today returns the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.UTC
	}
	return civil.DateOf(now.In(loc))
}
