package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/infra/memory"
)

type fakePublisher struct {
	queue  string
	bodies [][]byte
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, queue string, body []byte) error {
	p.queue = queue
	p.bodies = append(p.bodies, body)
	return p.err
}

type failingStore struct{}

func (failingStore) SaveAttempt(context.Context, domain.AttemptRecord) error {
	return errors.New("db down")
}

func sampleRecord() domain.AttemptRecord {
	return domain.AttemptRecord{
		UserID:      "u1",
		QuizID:      "quiz-1",
		Score:       13,
		MaxScore:    20,
		TimeTaken:   42,
		CompletedAt: time.Date(2024, 11, 22, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublishesAfterSave(t *testing.T) {
	store := memory.NewAttemptStore()
	pub := &fakePublisher{}
	s := NewPublishingAttemptStore(store, pub, "")

	require.NoError(t, s.SaveAttempt(context.Background(), sampleRecord()))
	require.Len(t, store.Attempts(), 1)
	require.Len(t, pub.bodies, 1)
	assert.Equal(t, DefaultQueue, pub.queue)

	var msg AttemptCompleted
	require.NoError(t, json.Unmarshal(pub.bodies[0], &msg))
	assert.Equal(t, "attempt.completed", msg.Event)
	assert.Equal(t, 65, msg.Percentage)
	assert.Equal(t, 42, msg.TimeTaken)
}

func TestPublishFailureDoesNotFailSave(t *testing.T) {
	store := memory.NewAttemptStore()
	pub := &fakePublisher{err: errors.New("broker unreachable")}
	s := NewPublishingAttemptStore(store, pub, "attempts")

	require.NoError(t, s.SaveAttempt(context.Background(), sampleRecord()))
	assert.Len(t, store.Attempts(), 1)
	assert.Equal(t, "attempts", pub.queue)
}

func TestSaveFailureSkipsPublish(t *testing.T) {
	pub := &fakePublisher{}
	s := NewPublishingAttemptStore(failingStore{}, pub, "")

	require.Error(t, s.SaveAttempt(context.Background(), sampleRecord()))
	assert.Empty(t, pub.bodies)
}
