package health

import "flarewise/domain/core"

// EventLog is a complete set of logged events, possibly for several users.
// It is the unit of import and export between data sources.
type EventLog struct {
	Users       []core.UserID
	Foods       []FoodEvent
	Triggers    []TriggerEvent
	Medications []MedicationEvent
	Symptoms    []SymptomInstance
	Flares      []FlareRecord
	FlareEvents []FlareEvent
}

// CollectUsers returns the distinct user ids found in the log in first-seen
// order, scanning meals, triggers, medications, symptoms and flares
func (l *EventLog) CollectUsers() []core.UserID {
	seen := make(map[core.UserID]bool)
	var users []core.UserID
	add := func(u core.UserID) {
		if u != "" && !seen[u] {
			seen[u] = true
			users = append(users, u)
		}
	}
	for _, e := range l.Foods {
		add(e.UserID)
	}
	for _, e := range l.Triggers {
		add(e.UserID)
	}
	for _, e := range l.Medications {
		add(e.UserID)
	}
	for _, s := range l.Symptoms {
		add(s.UserID)
	}
	for _, f := range l.Flares {
		add(f.UserID)
	}
	return users
}

// Len is the total number of records in the log
func (l *EventLog) Len() int {
	return len(l.Foods) + len(l.Triggers) + len(l.Medications) +
		len(l.Symptoms) + len(l.Flares) + len(l.FlareEvents)
}
