package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemlight/compass/pkg/models"
)

func TestRecordFeedback_PersistsAndFillsIdentity(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO feedback_events").
		WithArgs(pgxmock.AnyArg(), "Robotics League", "helpful", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewFeedbackService(mock, nil, nil, quietLogger())
	event := &models.FeedbackEvent{ResourceName: "Robotics League", FeedbackType: "helpful"}

	require.NoError(t, svc.RecordFeedback(context.Background(), event))
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordFeedback_KeepsCallerIdentity(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	created := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	comment := "helped me pick a summer program"
	grade := 10

	mock.ExpectExec("INSERT INTO feedback_events").
		WithArgs(id, "Math Circle", "saved", &comment, &grade, created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewFeedbackService(mock, nil, nil, quietLogger())
	event := &models.FeedbackEvent{
		ID:           id,
		ResourceName: "Math Circle",
		FeedbackType: "saved",
		Comment:      &comment,
		StudentGrade: &grade,
		CreatedAt:    created,
	}

	require.NoError(t, svc.RecordFeedback(context.Background(), event))
	assert.Equal(t, id, event.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordFeedback_StoreErrorSurfaces(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO feedback_events").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	svc := NewFeedbackService(mock, nil, nil, quietLogger())
	event := &models.FeedbackEvent{ResourceName: "Math Circle", FeedbackType: "problem"}

	err = svc.RecordFeedback(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert feedback event")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordFeedback_DegradesToLogOnlyWithoutStore(t *testing.T) {
	svc := NewFeedbackService(nil, nil, nil, quietLogger())
	event := &models.FeedbackEvent{ResourceName: "Robotics League", FeedbackType: "applied"}

	require.NoError(t, svc.RecordFeedback(context.Background(), event))
	assert.NotEqual(t, uuid.Nil, event.ID)
}

func TestRecordUsage_PersistsPayloadAsJSON(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO usage_events").
		WithArgs(pgxmock.AnyArg(), "filter_applied", []byte(`{"location_filter":"virtual"}`), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewFeedbackService(mock, nil, nil, quietLogger())
	event := &models.UsageEvent{
		EventType: "filter_applied",
		Payload:   map[string]interface{}{"location_filter": "virtual"},
	}

	require.NoError(t, svc.RecordUsage(context.Background(), event))
	assert.NotEqual(t, uuid.Nil, event.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordUsage_DegradesToLogOnlyWithoutStore(t *testing.T) {
	svc := NewFeedbackService(nil, nil, nil, quietLogger())
	event := &models.UsageEvent{EventType: "session_started"}

	require.NoError(t, svc.RecordUsage(context.Background(), event))
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}
