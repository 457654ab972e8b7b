// Package windows defines the fixed lag windows used to score and bucket
// exposure→symptom delays. The set is ordered by start offset and never
// changes at runtime.
package windows

import (
	"encoding/json"
	"fmt"
	"time"
)

// Window is a lag bucket [Start, End] measured from the exposure time
type Window struct {
	Label string
	Start time.Duration
	End   time.Duration
}

// MarshalJSON encodes the window with millisecond bounds
func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Label   string `json:"label"`
		StartMs int64  `json:"startMs"`
		EndMs   int64  `json:"endMs"`
	}{w.Label, w.StartMs(), w.EndMs()})
}

// Width returns End - Start
func (w Window) Width() time.Duration {
	return w.End - w.Start
}

// Contains reports whether a lag falls inside the window (both ends inclusive)
func (w Window) Contains(lag time.Duration) bool {
	return lag >= w.Start && lag <= w.End
}

// StartMs returns the window start in milliseconds
func (w Window) StartMs() int64 { return w.Start.Milliseconds() }

// EndMs returns the window end in milliseconds
func (w Window) EndMs() int64 { return w.End.Milliseconds() }

// WindowSet is the fixed catalog of lag windows used by every correlation
// computation, ordered by Start ascending.
var WindowSet = []Window{
	{Label: "0-2h", Start: 0, End: 2 * time.Hour},
	{Label: "2-6h", Start: 2 * time.Hour, End: 6 * time.Hour},
	{Label: "6-12h", Start: 6 * time.Hour, End: 12 * time.Hour},
	{Label: "12-24h", Start: 12 * time.Hour, End: 24 * time.Hour},
	{Label: "24-48h", Start: 24 * time.Hour, End: 48 * time.Hour},
}

// MaxLag is the end of the last window
func MaxLag() time.Duration {
	return WindowSet[len(WindowSet)-1].End
}

// All returns a copy of the catalog
func All() []Window {
	out := make([]Window, len(WindowSet))
	copy(out, WindowSet)
	return out
}

// ByLabel looks a window up by its label
func ByLabel(label string) (Window, error) {
	for _, w := range WindowSet {
		if w.Label == label {
			return w, nil
		}
	}
	return Window{}, fmt.Errorf("unknown window %q", label)
}

// Index returns the position of a label in the catalog, or -1
func Index(label string) int {
	for i, w := range WindowSet {
		if w.Label == label {
			return i
		}
	}
	return -1
}

// ForLag returns the first window containing lag. Boundaries belong to the
// earlier (shorter) window.
func ForLag(lag time.Duration) (Window, bool) {
	for _, w := range WindowSet {
		if w.Contains(lag) {
			return w, true
		}
	}
	return Window{}, false
}

// FromBucketHours builds contiguous windows from ascending upper bounds in
// hours, e.g. [2, 6, 12] gives 0-2h, 2-6h, 6-12h.
func FromBucketHours(bounds []int) ([]Window, error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("no bucket bounds")
	}
	out := make([]Window, 0, len(bounds))
	prev := 0
	for _, h := range bounds {
		if h <= prev {
			return nil, fmt.Errorf("bucket bounds must be positive and increasing, got %v", bounds)
		}
		out = append(out, Window{
			Label: fmt.Sprintf("%d-%dh", prev, h),
			Start: time.Duration(prev) * time.Hour,
			End:   time.Duration(h) * time.Hour,
		})
		prev = h
	}
	return out, nil
}
