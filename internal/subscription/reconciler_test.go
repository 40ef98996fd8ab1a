package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	byRef   map[string]Subscription
	inserts int
	updates int
}

func newMockStore() *mockStore {
	return &mockStore{byRef: map[string]Subscription{}}
}

func (m *mockStore) Insert(ctx context.Context, s Subscription) error {
	m.inserts++
	m.byRef[s.ExternalRef] = s
	return nil
}

func (m *mockStore) GetByExternalRef(ctx context.Context, ref string) (Subscription, error) {
	s, ok := m.byRef[ref]
	if !ok {
		return Subscription{}, ErrNotFound
	}
	return s, nil
}

func (m *mockStore) Update(ctx context.Context, s Subscription) error {
	if _, ok := m.byRef[s.ExternalRef]; !ok {
		return ErrNotFound
	}
	m.updates++
	m.byRef[s.ExternalRef] = s
	return nil
}

func (m *mockStore) ActiveForUser(ctx context.Context, userID string, t time.Time) (Subscription, error) {
	for _, s := range m.byRef {
		if s.UserID == userID && s.Active(t) {
			return s, nil
		}
	}
	return Subscription{}, ErrNotFound
}

func TestFromProvider(t *testing.T) {
	cases := []struct {
		in   string
		want Status
	}{
		{"active", StatusActive},
		{"trialing", StatusActive},
		{"past_due", StatusPastDue},
		{"canceled", StatusCancelled},
		{"unpaid", StatusCancelled},
		{"incomplete", StatusIncomplete},
		{"incomplete_expired", StatusIncomplete},
		{"paused", Status("PAUSED")},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FromProvider(c.in), "input %q", c.in)
	}
}

func TestCreatedInsertsRow(t *testing.T) {
	st := newMockStore()
	r := &Reconciler{Store: st}

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	err := r.Apply(context.Background(), Signal{
		Kind:           SignalCreated,
		ExternalRef:    "sub_1",
		ProviderStatus: "trialing",
		UserID:         "u1",
		PlanID:         "basic",
		PeriodStart:    start,
		PeriodEnd:      end,
	})
	require.NoError(t, err)
	require.Equal(t, 1, st.inserts)

	s := st.byRef["sub_1"]
	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "basic", s.PlanID)
	assert.Equal(t, end, s.CurrentPeriodEnd)
	assert.NotEmpty(t, s.ID)
}

func TestDuplicateCreatedDoesNotDoubleInsert(t *testing.T) {
	st := newMockStore()
	r := &Reconciler{Store: st}
	sig := Signal{Kind: SignalCreated, ExternalRef: "sub_1", ProviderStatus: "active", UserID: "u1", PlanID: "basic"}

	require.NoError(t, r.Apply(context.Background(), sig))
	sig.ProviderStatus = "past_due"
	require.NoError(t, r.Apply(context.Background(), sig))

	assert.Equal(t, 1, st.inserts)
	assert.Equal(t, 1, st.updates)
	assert.Equal(t, StatusPastDue, st.byRef["sub_1"].Status)
}

func TestUpdatedForUnknownRefIsDropped(t *testing.T) {
	st := newMockStore()
	r := &Reconciler{Store: st}

	err := r.Apply(context.Background(), Signal{
		Kind:           SignalUpdated,
		ExternalRef:    "sub_ghost",
		ProviderStatus: "active",
	})
	require.NoError(t, err)
	assert.Zero(t, st.inserts)
	assert.Zero(t, st.updates)
	assert.Empty(t, st.byRef)
}

func TestUpdatedMapsStatusAndPeriods(t *testing.T) {
	st := newMockStore()
	st.byRef["sub_1"] = Subscription{ID: "id1", ExternalRef: "sub_1", UserID: "u1", Status: StatusActive}
	r := &Reconciler{Store: st}

	end := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	err := r.Apply(context.Background(), Signal{
		Kind:           SignalUpdated,
		ExternalRef:    "sub_1",
		ProviderStatus: "past_due",
		PeriodEnd:      end,
	})
	require.NoError(t, err)

	s := st.byRef["sub_1"]
	assert.Equal(t, StatusPastDue, s.Status)
	assert.Equal(t, end, s.CurrentPeriodEnd)
	assert.Equal(t, "u1", s.UserID) // untouched
}

func TestDeletedCancelsWithTimestamp(t *testing.T) {
	st := newMockStore()
	st.byRef["sub_1"] = Subscription{ID: "id1", ExternalRef: "sub_1", Status: StatusActive}
	r := &Reconciler{Store: st}

	require.NoError(t, r.Apply(context.Background(), Signal{Kind: SignalDeleted, ExternalRef: "sub_1"}))

	s := st.byRef["sub_1"]
	assert.Equal(t, StatusCancelled, s.Status)
	require.NotNil(t, s.CancelledAt)
	assert.WithinDuration(t, time.Now().UTC(), *s.CancelledAt, 5*time.Second)
}

func TestDeletedForUnknownRefIsDropped(t *testing.T) {
	st := newMockStore()
	r := &Reconciler{Store: st}
	require.NoError(t, r.Apply(context.Background(), Signal{Kind: SignalDeleted, ExternalRef: "sub_ghost"}))
	assert.Empty(t, st.byRef)
}

func TestActiveWindow(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	s := Subscription{Status: StatusActive, CurrentPeriodEnd: now.Add(time.Hour)}
	assert.True(t, s.Active(now))

	s.CurrentPeriodEnd = now.Add(-time.Hour)
	assert.False(t, s.Active(now))

	s = Subscription{Status: StatusCancelled, CurrentPeriodEnd: now.Add(time.Hour)}
	assert.False(t, s.Active(now))
}
