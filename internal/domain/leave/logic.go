package leave

import "time"

const secondsPerDay = 24 * 60 * 60

// WholeDaysInclusive counts calendar days from start to end, both included.
// Times of day and locations are ignored; only the calendar date matters.
func WholeDaysInclusive(start, end time.Time) (int, error) {
	s := civilDate(start)
	e := civilDate(end)
	if e.Before(s) {
		return 0, ErrInvalidRange
	}
	return int((e.Unix()-s.Unix())/secondsPerDay) + 1, nil
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
