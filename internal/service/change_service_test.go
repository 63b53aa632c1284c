package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nxtgen-lms-api/internal/dto"
)

func receiveChange(t *testing.T, ch <-chan dto.ChangeEvent) dto.ChangeEvent {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok)
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
	return dto.ChangeEvent{}
}

func TestChangeServiceDeliversOnlyToAudience(t *testing.T) {
	changes := NewChangeService(nil, "", nil, nopLogger())
	teacher := uuid.New()
	student := uuid.New()
	stranger := uuid.New()

	teacherCh, teacherDone := changes.Subscribe(teacher)
	defer teacherDone()
	strangerCh, strangerDone := changes.Subscribe(stranger)
	defer strangerDone()

	courseID := uuid.New()
	changes.Publish(context.Background(), []uuid.UUID{teacher, student, teacher}, dto.ChangeEvent{
		Table:    dto.ChangeTableSubmissions,
		Action:   dto.ChangeActionInsert,
		CourseID: &courseID,
		RecordID: uuid.New(),
	})

	event := receiveChange(t, teacherCh)
	require.Equal(t, dto.ChangeTableSubmissions, event.Table)
	require.False(t, event.OccurredAt.IsZero())

	select {
	case <-strangerCh:
		t.Fatal("stranger must not receive the event")
	default:
	}

	select {
	case <-teacherCh:
		t.Fatal("duplicate audience entries must deliver once")
	default:
	}
}

func TestChangeServiceCleanupIsIdempotent(t *testing.T) {
	changes := NewChangeService(nil, "", nil, nopLogger())
	ch, done := changes.Subscribe(uuid.New())
	done()
	done()

	_, ok := <-ch
	require.False(t, ok)
}

func TestChangeServiceRelaysThroughRedis(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	publisherClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer publisherClient.Close()
	consumerClient := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer consumerClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	nodeA := NewChangeService(publisherClient, "lms:changes", nil, nopLogger())
	nodeB := NewChangeService(consumerClient, "lms:changes", nil, nopLogger())
	nodeB.Start(ctx)

	userID := uuid.New()
	ch, done := nodeB.Subscribe(userID)
	defer done()

	require.Eventually(t, func() bool {
		return publisherClient.PubSubNumSub(ctx, "lms:changes").Val()["lms:changes"] > 0
	}, 2*time.Second, 10*time.Millisecond)

	nodeA.Publish(ctx, []uuid.UUID{userID}, dto.ChangeEvent{
		Table:    dto.ChangeTableAttendance,
		Action:   dto.ChangeActionUpdate,
		RecordID: uuid.New(),
	})

	event := receiveChange(t, ch)
	require.Equal(t, dto.ChangeTableAttendance, event.Table)
}
