package health

import (
	"testing"

	"flarewise/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestEventLog_CollectUsers(t *testing.T) {
	log := &EventLog{
		Symptoms: []SymptomInstance{{ID: "s1", UserID: "bob"}},
		Foods:    []FoodEvent{{ID: "m1", UserID: "alice"}, {ID: "m2", UserID: "bob"}},
		Flares:   []FlareRecord{{ID: "f1", UserID: "carol"}, {ID: "f2", UserID: ""}},
	}

	assert.Equal(t, []core.UserID{"alice", "bob", "carol"}, log.CollectUsers())
}

func TestEventLog_Len(t *testing.T) {
	log := &EventLog{
		Foods:       []FoodEvent{{ID: "m1"}},
		Triggers:    []TriggerEvent{{ID: "t1"}, {ID: "t2"}},
		FlareEvents: []FlareEvent{{ID: "e1"}},
	}

	assert.Equal(t, 4, log.Len())
	assert.Zero(t, (&EventLog{}).Len())
}
