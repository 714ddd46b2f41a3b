package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendUpcomingReminders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testNow)

	soon := f.insert(t, "A1", "u1", today(9, 15), today(10, 0), withEmail("u1@example.com"))
	failing := f.insert(t, "A2", "u2", today(9, 20), today(10, 0), withPhone("+390000000"))
	noContact := f.insert(t, "B1", "u3", today(9, 25), today(10, 0))
	later := f.insert(t, "B1", "u4", today(11, 0), today(12, 0), withEmail("u4@example.com"))

	f.notifier.failFor = map[int64]error{failing.ID: errors.New("sms gateway down")}
	clock := testNow
	jobs := NewJobService(f.store, f.registry, f.notifier, 30*time.Minute, func() time.Time { return clock }, zap.NewNop())

	n, err := jobs.SendUpcomingReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "the reminded booking plus the one without contact details")
	assert.Equal(t, []int64{soon.ID}, f.notifier.reminded)
	assert.NotContains(t, f.notifier.reminded, noContact.ID)

	// Only the failed one is retried.
	delete(f.notifier.failFor, failing.ID)
	n, err = jobs.SendUpcomingReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{soon.ID, failing.ID}, f.notifier.reminded)

	n, err = jobs.SendUpcomingReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	clock = today(10, 45)
	n, err = jobs.SendUpcomingReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{soon.ID, failing.ID, later.ID}, f.notifier.reminded)
}

func TestJobServiceStartRejectsBadSchedule(t *testing.T) {
	f := newFixture(t, testNow)
	jobs := NewJobService(f.store, f.registry, f.notifier, time.Minute, time.Now, zap.NewNop())

	_, err := jobs.Start("not a schedule")
	assert.Error(t, err)

	c, err := jobs.Start("@every 1h")
	require.NoError(t, err)
	<-c.Stop().Done()
}
