package model

import (
	"time"

	"taskdesk/internal/taskerr"
)

// ApplyTransition returns a copy of t with its status set to `to` and the
// closure-timestamp side effect applied. Every status change in the system,
// server- or client-side, goes through this single function so that the
// currently unrestricted transition table can be tightened later in one
// place.
//
// Side effects:
//   - into finished: ClosedAt is stamped with `now` iff it is unset
//   - out of finished: ClosedAt is cleared, and any rating is dropped with
//     it (a rating is only meaningful on a finished task)
//   - anything else: ClosedAt untouched
func ApplyTransition(t Task, to Status, now time.Time) (Task, error) {
	if !to.Valid() {
		return t, taskerr.Newf(taskerr.KindInvalidTransition, "unknown status %q", to)
	}
	from := t.Status
	out := t
	out.Status = to

	switch {
	case to == StatusFinished:
		if out.ClosedAt == nil {
			ts := now
			out.ClosedAt = &ts
		}
	case from == StatusFinished:
		out.ClosedAt = nil
		out.Rating = nil
	}
	return out, nil
}

// CheckRatingChange guards rating edits: a rating may only be accepted
// while the resulting status is finished.
func CheckRatingChange(status Status, rating *int) error {
	if rating == nil {
		return nil
	}
	if status != StatusFinished {
		return taskerr.New(taskerr.KindInvalidTransition, "rating may only be set while the task is finished")
	}
	if *rating < 0 || *rating > 10 {
		return taskerr.Newf(taskerr.KindValidation, "rating %d out of range 0-10", *rating)
	}
	return nil
}
