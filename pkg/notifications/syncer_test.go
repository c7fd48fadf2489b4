package notifications_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/questnotify/pkg/logger"
	"github.com/dmitrymomot/questnotify/pkg/notifications"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) List(ctx context.Context, d notifications.Domain) ([]notifications.Notification, error) {
	args := m.Called(ctx, d.Name)
	items, _ := args.Get(0).([]notifications.Notification)
	return items, args.Error(1)
}

func (m *mockAPI) UnreadCount(ctx context.Context, d notifications.Domain) (int, error) {
	args := m.Called(ctx, d.Name)
	return args.Int(0), args.Error(1)
}

func (m *mockAPI) MarkSeen(ctx context.Context, d notifications.Domain, id int64) error {
	args := m.Called(ctx, d.Name, id)
	return args.Error(0)
}

func newSyncer(api notifications.API, opts ...notifications.SyncerOption) *notifications.Syncer {
	opts = append([]notifications.SyncerOption{notifications.WithSyncerLogger(logger.Discard())}, opts...)
	return notifications.NewSyncer(notifications.UserDomain(), api, opts...)
}

func TestSyncer_RefreshReplacesCounter(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	api.On("List", mock.Anything, "user").Return(sample(), nil)
	api.On("UnreadCount", mock.Anything, "user").Return(7, nil).Once()
	api.On("UnreadCount", mock.Anything, "user").Return(8, nil).Once()

	s := newSyncer(api)
	ctx := context.Background()

	require.NoError(t, s.Refresh(ctx))
	assert.Equal(t, 7, s.Snapshot().Unread)

	require.NoError(t, s.Refresh(ctx))
	st := s.Snapshot()
	assert.Equal(t, 8, st.Unread, "second response replaces the counter wholesale")
	assert.Len(t, st.Notifications, 3)
	api.AssertExpectations(t)
}

func TestSyncer_RefreshAppliesResultsIndependently(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	api.On("List", mock.Anything, "user").Return(nil, errors.New("list down")).Once()
	api.On("UnreadCount", mock.Anything, "user").Return(4, nil).Once()

	changes := 0
	s := newSyncer(api, notifications.OnChange(func(domain string, st notifications.State) {
		assert.Equal(t, "user", domain)
		changes++
	}))

	s.Store().Replace(sample())
	err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list down")

	st := s.Snapshot()
	assert.Equal(t, 4, st.Unread)
	assert.Len(t, st.Notifications, 3, "stale list persists")
	assert.Equal(t, 1, changes)

	api.On("List", mock.Anything, "user").Return([]notifications.Notification{{ID: 9}}, nil).Once()
	api.On("UnreadCount", mock.Anything, "user").Return(0, errors.New("count down")).Once()

	err = s.Refresh(context.Background())
	require.Error(t, err)
	st = s.Snapshot()
	assert.Equal(t, 4, st.Unread, "stale counter persists")
	assert.Len(t, st.Notifications, 1)
}

func TestSyncer_RefreshBothFail(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	api.On("List", mock.Anything, "user").Return(nil, errors.New("a"))
	api.On("UnreadCount", mock.Anything, "user").Return(0, errors.New("b"))

	changes := 0
	s := newSyncer(api, notifications.OnChange(func(string, notifications.State) { changes++ }))
	err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list: a")
	assert.Contains(t, err.Error(), "unread count: b")
	assert.Zero(t, changes)
}

func TestSyncer_MarkAsRead(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	api.On("MarkSeen", mock.Anything, "user", int64(1)).Return(nil).Once()

	s := newSyncer(api)
	s.Store().Replace(sample())
	s.Store().SetUnread(2)

	require.NoError(t, s.MarkAsRead(context.Background(), 1))
	n, _ := s.Store().Get(1)
	assert.True(t, n.Seen)
	assert.Equal(t, 1, s.Snapshot().Unread)
	api.AssertExpectations(t)
}

func TestSyncer_MarkAsReadAlreadySeen(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	s := newSyncer(api)
	s.Store().Replace(sample())
	s.Store().SetUnread(2)

	require.NoError(t, s.MarkAsRead(context.Background(), 2))
	assert.Equal(t, 2, s.Snapshot().Unread)
	api.AssertNotCalled(t, "MarkSeen", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncer_MarkAsReadFailureLeavesState(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	boom := errors.New("boom")
	api.On("MarkSeen", mock.Anything, "user", int64(3)).Return(boom).Once()

	s := newSyncer(api)
	s.Store().Replace(sample())
	s.Store().SetUnread(2)

	err := s.MarkAsRead(context.Background(), 3)
	require.ErrorIs(t, err, boom)

	n, _ := s.Store().Get(3)
	assert.False(t, n.Seen)
	assert.Equal(t, 2, s.Snapshot().Unread)
	api.AssertNumberOfCalls(t, "MarkSeen", 1)
}

func TestSyncer_MarkAsReadClampsCounter(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	api.On("MarkSeen", mock.Anything, "user", int64(1)).Return(nil)

	s := newSyncer(api)
	s.Store().Replace(sample())

	require.NoError(t, s.MarkAsRead(context.Background(), 1))
	assert.Zero(t, s.Snapshot().Unread)
}

func threeUnseen() []notifications.Notification {
	return []notifications.Notification{
		{ID: 1, Kind: notifications.KindNewQuest},
		{ID: 2, Kind: notifications.KindQuestValidated},
		{ID: 3, Kind: notifications.KindQuestRejected},
	}
}

func TestSyncer_MarkAllAsReadIgnoresFailures(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	boom := errors.New("boom")
	api.On("MarkSeen", mock.Anything, "user", int64(1)).Return(nil).Once()
	api.On("MarkSeen", mock.Anything, "user", int64(2)).Return(boom).Once()
	api.On("MarkSeen", mock.Anything, "user", int64(3)).Return(nil).Once()

	s := newSyncer(api)
	s.Store().Replace(threeUnseen())
	s.Store().SetUnread(3)

	results := s.MarkAllAsRead(context.Background())
	require.Len(t, results, 3)
	assert.Equal(t, notifications.Result{ID: 2, Err: boom}, results[1])
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[2].Err)

	st := s.Snapshot()
	assert.Zero(t, st.Unread)
	for _, n := range st.Notifications {
		assert.True(t, n.Seen)
	}
	api.AssertExpectations(t)
}

func TestSyncer_MarkAllAsReadConfirmedOnly(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	api.On("MarkSeen", mock.Anything, "user", int64(1)).Return(nil)
	api.On("MarkSeen", mock.Anything, "user", int64(2)).Return(errors.New("boom"))
	api.On("MarkSeen", mock.Anything, "user", int64(3)).Return(nil)

	s := newSyncer(api, notifications.WithConfirmedBulkMark())
	s.Store().Replace(threeUnseen())
	s.Store().SetUnread(3)

	results := s.MarkAllAsRead(context.Background())
	require.Len(t, results, 3)

	assert.Equal(t, []int64{2}, s.Store().Unseen())
	assert.Equal(t, 1, s.Snapshot().Unread)
}

func TestSyncer_MarkAllAsReadNothingUnseen(t *testing.T) {
	t.Parallel()

	api := &mockAPI{}
	s := newSyncer(api)
	s.Store().Replace([]notifications.Notification{{ID: 2, Seen: true}})
	s.Store().SetUnread(1)

	assert.Nil(t, s.MarkAllAsRead(context.Background()))
	assert.Zero(t, s.Snapshot().Unread)
	api.AssertNotCalled(t, "MarkSeen", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncer_MarkAllAsReadRunsConcurrently(t *testing.T) {
	t.Parallel()

	var wg sync.WaitGroup
	wg.Add(3)
	api := &mockAPI{}
	api.On("MarkSeen", mock.Anything, "user", mock.Anything).Run(func(mock.Arguments) {
		wg.Done()
		wg.Wait() // every request must be in flight at once
	}).Return(nil)

	s := newSyncer(api)
	s.Store().Replace(threeUnseen())

	results := s.MarkAllAsRead(context.Background())
	assert.Len(t, results, 3)
	api.AssertNumberOfCalls(t, "MarkSeen", 3)
}
