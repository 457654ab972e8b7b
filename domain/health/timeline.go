package health

import (
	"sort"

	"flarewise/domain/core"
)

// TimelineKind is the category of a merged timeline entry
type TimelineKind string

const (
	KindFood       TimelineKind = "food"
	KindTrigger    TimelineKind = "trigger"
	KindMedication TimelineKind = "medication"
	KindSymptom    TimelineKind = "symptom"
)

// IsExposure reports whether entries of this kind are candidate causes
func (k TimelineKind) IsExposure() bool {
	switch k {
	case KindFood, KindTrigger, KindMedication:
		return true
	}
	return false
}

// TimelineEvent is a typed, flattened entry on a user's timeline.
// A multi-food meal expands into one entry per distinct food.
type TimelineEvent struct {
	EventID   core.ID        `json:"eventId"`
	Kind      TimelineKind   `json:"kind"`
	SubjectID string         `json:"subjectId"`
	Timestamp core.Timestamp `json:"timestamp"`
	Severity  int            `json:"severity,omitempty"`
}

// BuildTimeline merges the per-kind event lists into one chronological stream.
// Ordering is by timestamp, then kind, subject and event id so the result is
// stable for identical input.
func BuildTimeline(foods []FoodEvent, triggers []TriggerEvent, meds []MedicationEvent, symptoms []SymptomInstance) []TimelineEvent {
	out := make([]TimelineEvent, 0, len(foods)+len(triggers)+len(meds)+len(symptoms))
	for _, f := range foods {
		seen := make(map[core.FoodID]bool, len(f.FoodIDs))
		for _, food := range f.FoodIDs {
			if food == "" || seen[food] {
				continue
			}
			seen[food] = true
			out = append(out, TimelineEvent{EventID: f.ID, Kind: KindFood, SubjectID: string(food), Timestamp: f.Timestamp})
		}
	}
	for _, tr := range triggers {
		out = append(out, TimelineEvent{EventID: tr.ID, Kind: KindTrigger, SubjectID: string(tr.TriggerID), Timestamp: tr.Timestamp})
	}
	for _, m := range meds {
		if !m.Taken {
			continue
		}
		out = append(out, TimelineEvent{EventID: m.ID, Kind: KindMedication, SubjectID: string(m.MedicationID), Timestamp: m.Timestamp})
	}
	for _, s := range symptoms {
		subject := string(s.SymptomID)
		if subject == "" {
			subject = s.Name
		}
		out = append(out, TimelineEvent{EventID: s.ID, Kind: KindSymptom, SubjectID: subject, Timestamp: s.Timestamp, Severity: s.Severity})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Timestamp.Time().Equal(b.Timestamp.Time()) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.SubjectID != b.SubjectID {
			return a.SubjectID < b.SubjectID
		}
		return a.EventID < b.EventID
	})
	return out
}
