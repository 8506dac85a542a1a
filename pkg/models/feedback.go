package models

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackEvent records a student's reaction to a served recommendation.
type FeedbackEvent struct {
	ID           uuid.UUID `json:"id"`
	ResourceName string    `json:"resource_name" binding:"required,min=1,max=500"`
	FeedbackType string    `json:"feedback_type" binding:"required,oneof=helpful not_helpful saved applied problem"`
	Comment      *string   `json:"comment,omitempty" binding:"omitempty,max=2000"`
	StudentGrade *int      `json:"student_grade,omitempty" binding:"omitempty,min=1,max=12"`
	CreatedAt    time.Time `json:"created_at"`
}

// UsageEvent is a lightweight analytics record (session started,
// recommendations viewed, filter applied). Payload is free-form.
type UsageEvent struct {
	ID        uuid.UUID              `json:"id"`
	EventType string                 `json:"event_type" binding:"required,min=1,max=100"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}
