package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/DL444/cqu-schedule/lib/schedule"
	"github.com/DL444/cqu-schedule/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) Store {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name: "subscription",
	})
	t.Cleanup(cleanup)

	store, err := NewStoreFromDB(res.DB)
	require.NoError(t, err)
	return store
}

func TestStoreUsers(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.GetUser(ctx, "20211234")
	require.ErrorIs(t, err, ErrNotFound)

	user := schedule.User{
		Username:       "20211234",
		Password:       "sealed",
		KeyId:          "k1",
		SubscriptionId: "sub-id",
		UserType:       schedule.UserTypeUndergraduate,
	}
	require.NoError(t, store.SetUser(ctx, user))

	got, err := store.GetUser(ctx, "20211234")
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(user, got))

	user.Password = "resealed"
	require.NoError(t, store.SetUser(ctx, user))
	got, err = store.GetUser(ctx, "20211234")
	require.NoError(t, err)
	require.Equal(t, "resealed", got.Password)

	usernames, err := store.ListUsernames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"20211234"}, usernames)
}

func TestStoreSchedules(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	sched := schedule.New("20211234")
	sched.AddEntry(2, schedule.Entry{Name: "算法分析", DayOfWeek: 3, StartSession: 3, EndSession: 4})
	sched.AddExam(schedule.ExamEntry{
		Name:      "算法分析",
		StartTime: time.Date(2026, 6, 20, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 6, 20, 11, 0, 0, 0, time.UTC),
	})
	require.NoError(t, store.SetSchedule(ctx, sched))

	got, err := store.GetSchedule(ctx, "20211234")
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(sched, got))
}

func TestStoreDeleteUser(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetUser(ctx, schedule.User{Username: "20211234"}))
	require.NoError(t, store.SetSchedule(ctx, schedule.New("20211234")))

	require.NoError(t, store.DeleteUser(ctx, "20211234"))

	_, err := store.GetUser(ctx, "20211234")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetSchedule(ctx, "20211234")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreTerm(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.GetTerm(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	term := schedule.Term{
		SessionTermId: "1039",
		StartDate:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 7, 13, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SetTerm(ctx, term))

	got, err := store.GetTerm(ctx)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(term, got))

	// only one term row ever exists
	term.SessionTermId = "1040"
	require.NoError(t, store.SetTerm(ctx, term))
	got, err = store.GetTerm(ctx)
	require.NoError(t, err)
	require.Equal(t, "1040", got.SessionTermId)
}
