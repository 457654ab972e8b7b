package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is a point in time that travels over the wire as epoch milliseconds
type Timestamp time.Time

// NewTimestamp creates a new timestamp from time.Time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t)
}

// FromMillis converts epoch milliseconds to a Timestamp (UTC)
func FromMillis(ms int64) Timestamp {
	return Timestamp(time.UnixMilli(ms).UTC())
}

// Now returns the current timestamp
func Now() Timestamp {
	return Timestamp(time.Now())
}

// Time returns the underlying time.Time
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// Millis returns epoch milliseconds
func (t Timestamp) Millis() int64 {
	return time.Time(t).UnixMilli()
}

// IsZero checks if the timestamp is zero
func (t Timestamp) IsZero() bool {
	return time.Time(t).IsZero()
}

// Before returns true if t is before u
func (t Timestamp) Before(u Timestamp) bool {
	return time.Time(t).Before(time.Time(u))
}

// After returns true if t is after u
func (t Timestamp) After(u Timestamp) bool {
	return time.Time(t).After(time.Time(u))
}

// MarshalJSON encodes the timestamp as epoch milliseconds
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Millis())
}

// UnmarshalJSON accepts epoch milliseconds or an RFC3339 string
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var ms int64
	if err := json.Unmarshal(data, &ms); err == nil {
		*t = FromMillis(ms)
		return nil
	}
	var tm time.Time
	if err := tm.UnmarshalJSON(data); err != nil {
		return err
	}
	*t = Timestamp(tm)
	return nil
}

// Scan implements sql.Scanner
func (t *Timestamp) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*t = Timestamp(v)
	case nil:
		*t = Timestamp{}
	case int64:
		*t = FromMillis(v)
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
	return nil
}

// Value implements driver.Valuer
func (t Timestamp) Value() (driver.Value, error) {
	return time.Time(t), nil
}

// DateRange is a closed interval [Start, End]
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange validates and builds a range
func NewDateRange(start, end time.Time) (DateRange, error) {
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidRange,
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return DateRange{Start: start, End: end}, nil
}

// LastNDays returns the range ending at now and spanning n days
func LastNDays(now time.Time, n int) DateRange {
	return DateRange{Start: now.AddDate(0, 0, -n), End: now}
}

// Contains reports whether t falls within the range (inclusive)
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Duration returns the length of the range
func (r DateRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// IsZero reports whether neither bound is set
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}
