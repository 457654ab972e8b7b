package testkit

import (
	"fmt"

	"flarewise/adapters/memory"
	"flarewise/domain/core"
	"flarewise/domain/health"
)

// TestKit bundles a generated symptom log with a repository holding it
type TestKit struct {
	Log  *health.EventLog
	Repo *memory.EventRepository
}

// NewTestKit generates a log with the default config and the given seed
func NewTestKit(seed int64) (*TestKit, error) {
	cfg := DefaultSymptomLogConfig()
	cfg.Seed = seed
	return NewTestKitWithConfig(cfg)
}

// NewTestKitWithConfig generates a log and loads it into a fresh repository
func NewTestKitWithConfig(cfg SymptomLogConfig) (*TestKit, error) {
	log, err := NewSymptomLogGenerator(cfg).Generate()
	if err != nil {
		return nil, fmt.Errorf("generate symptom log: %w", err)
	}
	repo := memory.NewEventRepository()
	repo.Load(log)
	return &TestKit{Log: log, Repo: repo}, nil
}

// FirstUser returns the first generated user id
func (k *TestKit) FirstUser() core.UserID {
	if len(k.Log.Users) == 0 {
		return ""
	}
	return k.Log.Users[0]
}
