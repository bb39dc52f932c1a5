package domain

import "cloud.google.com/go/civil"

// PrebookingWindowDays is how many days before an active lease ends a
// successor may be pre-booked.
const PrebookingWindowDays = 15

// CheckPrebooking decides whether a lease starting at start may be queued
// behind the active lease on the same property, as seen on today.
//
// The successor is eligible only when the active lease ends in the current
// calendar month, between one and PrebookingWindowDays days from today, and
// the successor starts strictly after that end date.
func CheckPrebooking(active Lease, start, today civil.Date) error {
	end := active.EndDate

	if end.Year != today.Year || end.Month != today.Month {
		return &PrebookingError{LeaseID: active.ID, Reason: "current lease does not end this month"}
	}

	daysLeft := end.DaysSince(today)
	if daysLeft <= 0 || daysLeft > PrebookingWindowDays {
		return &PrebookingError{LeaseID: active.ID, Reason: "outside the pre-booking window"}
	}

	if !start.After(end) {
		return &PrebookingError{LeaseID: active.ID, Reason: "requested start overlaps the current lease"}
	}

	return nil
}
