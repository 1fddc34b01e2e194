package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronsb/playtimed/internal/domain"
)

// fakeStore implements domain.Store over an in-memory limits table, enough
// to exercise ExportSchedule/ImportSchedule without a real database.
type fakeStore struct {
	domain.Store
	users  []domain.User
	limits map[string]domain.Limits
}

func newFakeStore(users ...domain.User) *fakeStore {
	return &fakeStore{users: users, limits: map[string]domain.Limits{}}
}

func (f *fakeStore) GetUsers(ctx context.Context) ([]domain.User, error) {
	return f.users, nil
}

func (f *fakeStore) GetLimits(ctx context.Context, user string) (domain.Limits, error) {
	if l, ok := f.limits[user]; ok {
		return l, nil
	}
	return domain.Limits{User: user}, nil
}

func (f *fakeStore) SetLimits(ctx context.Context, l domain.Limits) error {
	f.limits[l.User] = l
	return nil
}

func allAllowedGrid() string {
	b := make([]byte, 168)
	for i := range b {
		b[i] = '1'
	}
	return string(b)
}

func TestExportImportSchedule_RoundTripsAsNoOp(t *testing.T) {
	store := newFakeStore(domain.User{Name: "alice", UID: 1000, Enabled: true})
	dailyTotal := 120
	store.limits["alice"] = domain.Limits{User: "alice", Schedule: allAllowedGrid(), GamingLimitMin: 60, DailyTotalMin: &dailyTotal}

	a := New(store, nil)

	exported, err := a.ExportSchedule(context.Background())
	require.NoError(t, err)
	require.Contains(t, exported, "alice")

	before := store.limits["alice"]
	require.NoError(t, a.ImportSchedule(context.Background(), exported))
	after := store.limits["alice"]

	assert.Equal(t, before, after)
}

func TestImportSchedule_RejectsUnknownUser(t *testing.T) {
	store := newFakeStore(domain.User{Name: "alice", UID: 1000, Enabled: true})
	a := New(store, nil)

	err := a.ImportSchedule(context.Background(), map[string]ScheduleEntry{
		"ghost": {Schedule: allAllowedGrid(), GamingLimit: 30},
	})
	assert.Error(t, err)
	assert.Empty(t, store.limits["ghost"])
}

func TestImportSchedule_RejectsWrongLengthGrid(t *testing.T) {
	store := newFakeStore(domain.User{Name: "alice", UID: 1000, Enabled: true})
	a := New(store, nil)

	err := a.ImportSchedule(context.Background(), map[string]ScheduleEntry{
		"alice": {Schedule: "0101", GamingLimit: 30},
	})
	assert.Error(t, err)
}

func TestImportSchedule_RejectsBadAlphabet(t *testing.T) {
	store := newFakeStore(domain.User{Name: "alice", UID: 1000, Enabled: true})
	a := New(store, nil)

	grid := []byte(allAllowedGrid())
	grid[10] = 'x'
	err := a.ImportSchedule(context.Background(), map[string]ScheduleEntry{
		"alice": {Schedule: string(grid), GamingLimit: 30},
	})
	assert.Error(t, err)
}

func TestImportSchedule_RejectsWholeBatchOnOneBadEntry(t *testing.T) {
	store := newFakeStore(
		domain.User{Name: "alice", UID: 1000, Enabled: true},
		domain.User{Name: "bob", UID: 1001, Enabled: true},
	)
	a := New(store, nil)

	err := a.ImportSchedule(context.Background(), map[string]ScheduleEntry{
		"alice": {Schedule: allAllowedGrid(), GamingLimit: 30},
		"bob":   {Schedule: "too-short", GamingLimit: 30},
	})
	assert.Error(t, err)
	assert.Empty(t, store.limits["alice"], "a bad entry anywhere in the batch must reject the whole import")
}
