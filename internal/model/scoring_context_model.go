package model

import (
	"time"

	"github.com/google/uuid"
)

// ScoringContext is per-request metadata. A new one is created for every run.
type ScoringContext struct {
	SessionID    uuid.UUID `json:"session_id"`
	JobTitle     string    `json:"job_title,omitempty"`
	Industry     string    `json:"industry,omitempty"`
	SessionStart time.Time `json:"session_start"`
}

func NewScoringContext(jobTitle, industry string) ScoringContext {
	return ScoringContext{
		SessionID:    uuid.New(),
		JobTitle:     jobTitle,
		Industry:     industry,
		SessionStart: time.Now(),
	}
}
