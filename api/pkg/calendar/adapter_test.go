package calendar

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/openslot/openslot/api/pkg/config"
	"github.com/openslot/openslot/api/pkg/store"
	"github.com/openslot/openslot/api/pkg/types"
)

type adapterFixture struct {
	adapter *Adapter
	db      *store.PostgresStore
	client  *MockClient

	tenant  *types.Tenant
	staff   *types.Staff
	service *types.Service
}

func newAdapterFixture(t *testing.T, enabled bool) *adapterFixture {
	t.Helper()
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	client := NewMockClient(ctrl)

	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "openslot.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tenant, err := db.CreateTenant(ctx, &types.Tenant{Name: "Blade & Fade"})
	require.NoError(t, err)
	staff, err := db.CreateStaff(ctx, &types.Staff{TenantID: tenant.ID, Name: "Maya"})
	require.NoError(t, err)
	service, err := db.CreateService(ctx, &types.Service{
		TenantID:        tenant.ID,
		Name:            "Haircut",
		DurationMinutes: 30,
		PriceCents:      4500,
	})
	require.NoError(t, err)

	return &adapterFixture{
		adapter: NewAdapter(config.Calendar{Enabled: enabled}, db, client),
		db:      db,
		client:  client,
		tenant:  tenant,
		staff:   staff,
		service: service,
	}
}

// bookedSlot drives a slot through the real hold/confirm transitions so the
// booking row exists the way production writes it.
func (f *adapterFixture) bookedSlot(t *testing.T) (*types.Slot, *types.Booking) {
	t.Helper()
	ctx := context.Background()

	start := time.Now().Add(24 * time.Hour)
	slot, err := f.db.CreateSlot(ctx, &types.Slot{
		TenantID:  f.tenant.ID,
		StaffID:   f.staff.ID,
		ServiceID: f.service.ID,
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	})
	require.NoError(t, err)

	entry, err := f.db.CreateWaitlistEntry(ctx, &types.WaitlistEntry{
		TenantID:     f.tenant.ID,
		CustomerName: "Jordan",
		Phone:        "+15550001",
		ServiceID:    f.service.ID,
		EarliestTime: time.Now().Add(-time.Hour),
		LatestTime:   time.Now().Add(90 * 24 * time.Hour),
	}, 0)
	require.NoError(t, err)

	require.NoError(t, f.db.HoldSlotForEntry(ctx, f.tenant.ID, slot.ID, entry.ID, time.Now().Add(10*time.Minute)))
	booking, err := f.db.ConfirmHold(ctx, &store.ConfirmHoldParams{
		TenantID: f.tenant.ID,
		SlotID:   slot.ID,
		EntryID:  entry.ID,
		Now:      time.Now(),
	})
	require.NoError(t, err)

	booked, err := f.db.GetSlot(ctx, f.tenant.ID, slot.ID)
	require.NoError(t, err)
	return booked, booking
}

func (f *adapterFixture) eventBySlot(t *testing.T, slotID string) *types.CalendarEvent {
	t.Helper()
	event, err := f.db.GetCalendarEventBySlot(context.Background(), f.tenant.ID, slotID)
	require.NoError(t, err)
	return event
}

func TestOnBookedCreatesExternalEvent(t *testing.T) {
	f := newAdapterFixture(t, true)
	ctx := context.Background()
	slot, booking := f.bookedSlot(t)

	f.client.EXPECT().
		CreateEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event *ExternalEvent) (string, error) {
			assert.Contains(t, event.Summary, "Haircut")
			assert.Contains(t, event.Summary, "Jordan")
			assert.Equal(t, f.staff.ID, event.StaffID)
			return "evt_1", nil
		})

	f.adapter.OnBooked(ctx, slot, booking)

	event := f.eventBySlot(t, slot.ID)
	assert.Equal(t, types.CalendarEventStatusCreated, event.Status)
	assert.Equal(t, "evt_1", event.ExternalEventID)

	staff, err := f.db.GetStaff(ctx, f.tenant.ID, f.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, "ok", staff.CalendarSyncStatus)
}

func TestOnBookedRecordsFailure(t *testing.T) {
	f := newAdapterFixture(t, true)
	ctx := context.Background()
	slot, booking := f.bookedSlot(t)

	f.client.EXPECT().
		CreateEvent(gomock.Any(), gomock.Any()).
		Return("", errors.New("calendar down"))

	f.adapter.OnBooked(ctx, slot, booking)

	event := f.eventBySlot(t, slot.ID)
	assert.Equal(t, types.CalendarEventStatusError, event.Status)
	assert.Contains(t, event.LastError, "calendar down")

	staff, err := f.db.GetStaff(ctx, f.tenant.ID, f.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, "error", staff.CalendarSyncStatus)
}

func TestOnBookedDisabled(t *testing.T) {
	f := newAdapterFixture(t, false)
	slot, booking := f.bookedSlot(t)

	// no client expectations: a disabled adapter never calls out
	f.adapter.OnBooked(context.Background(), slot, booking)

	_, err := f.db.GetCalendarEventBySlot(context.Background(), f.tenant.ID, slot.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOnCanceledDeletesEvent(t *testing.T) {
	f := newAdapterFixture(t, true)
	ctx := context.Background()
	slot, booking := f.bookedSlot(t)

	f.client.EXPECT().CreateEvent(gomock.Any(), gomock.Any()).Return("evt_1", nil)
	f.adapter.OnBooked(ctx, slot, booking)

	f.client.EXPECT().DeleteEvent(gomock.Any(), "evt_1").Return(nil)
	f.adapter.OnCanceled(ctx, slot)

	event := f.eventBySlot(t, slot.ID)
	assert.Equal(t, types.CalendarEventStatusDeleted, event.Status)
}

func TestReconcileRepairsErrorEventInPlace(t *testing.T) {
	f := newAdapterFixture(t, true)
	ctx := context.Background()
	slot, booking := f.bookedSlot(t)

	f.client.EXPECT().
		CreateEvent(gomock.Any(), gomock.Any()).
		Return("", errors.New("calendar down"))
	f.adapter.OnBooked(ctx, slot, booking)

	stuck := f.eventBySlot(t, slot.ID)
	require.Equal(t, types.CalendarEventStatusError, stuck.Status)

	// exactly one retry creates the external event; the second pass must
	// find nothing left to do
	f.client.EXPECT().
		CreateEvent(gomock.Any(), gomock.Any()).
		Return("evt_2", nil).
		Times(1)

	repaired, err := f.adapter.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	repaired, err = f.adapter.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)

	// the stuck row itself was repaired, no duplicate row appeared
	events, err := f.db.ListCalendarEvents(ctx, f.tenant.ID, &store.ListCalendarEventsQuery{SlotID: slot.ID})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, stuck.ID, events[0].ID)
	assert.Equal(t, types.CalendarEventStatusCreated, events[0].Status)
	assert.Equal(t, "evt_2", events[0].ExternalEventID)
	assert.Empty(t, events[0].LastError)
}

func TestReconcileKeepsErrorRowWhenRetryFails(t *testing.T) {
	f := newAdapterFixture(t, true)
	ctx := context.Background()
	slot, booking := f.bookedSlot(t)

	f.client.EXPECT().
		CreateEvent(gomock.Any(), gomock.Any()).
		Return("", errors.New("calendar down")).
		Times(2)
	f.adapter.OnBooked(ctx, slot, booking)

	repaired, err := f.adapter.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)

	events, err := f.db.ListCalendarEvents(ctx, f.tenant.ID, &store.ListCalendarEventsQuery{SlotID: slot.ID})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, types.CalendarEventStatusError, events[0].Status)
}

func TestReconcileDeletesOrphanForCanceledSlot(t *testing.T) {
	f := newAdapterFixture(t, true)
	ctx := context.Background()

	start := time.Now().Add(24 * time.Hour)
	slot, err := f.db.CreateSlot(ctx, &types.Slot{
		TenantID:  f.tenant.ID,
		StaffID:   f.staff.ID,
		ServiceID: f.service.ID,
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	})
	require.NoError(t, err)

	_, err = f.db.CreateCalendarEvent(ctx, &types.CalendarEvent{
		TenantID:        f.tenant.ID,
		SlotID:          slot.ID,
		StaffID:         f.staff.ID,
		ExternalEventID: "evt_orphan",
		Status:          types.CalendarEventStatusCreated,
	})
	require.NoError(t, err)

	_, err = f.db.CancelSlot(ctx, f.tenant.ID, slot.ID)
	require.NoError(t, err)

	f.client.EXPECT().DeleteEvent(gomock.Any(), "evt_orphan").Return(nil)

	repaired, err := f.adapter.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	event := f.eventBySlot(t, slot.ID)
	assert.Equal(t, types.CalendarEventStatusDeleted, event.Status)
}

func TestReconcileDeletesEventForMissingSlot(t *testing.T) {
	f := newAdapterFixture(t, true)
	ctx := context.Background()

	_, err := f.db.CreateCalendarEvent(ctx, &types.CalendarEvent{
		TenantID:        f.tenant.ID,
		SlotID:          "slot_gone",
		StaffID:         f.staff.ID,
		ExternalEventID: "evt_gone",
		Status:          types.CalendarEventStatusError,
		LastError:       "create failed",
	})
	require.NoError(t, err)

	f.client.EXPECT().DeleteEvent(gomock.Any(), "evt_gone").Return(nil)

	repaired, err := f.adapter.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	event := f.eventBySlot(t, "slot_gone")
	assert.Equal(t, types.CalendarEventStatusDeleted, event.Status)
}

func TestReconcileDisabled(t *testing.T) {
	f := newAdapterFixture(t, false)

	repaired, err := f.adapter.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
}
