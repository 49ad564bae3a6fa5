package store

import (
	"time"

	"github.com/openslot/openslot/api/pkg/types"
)

func (suite *PostgresStoreTestSuite) TestHoldSlotForEntry() {
	tenant := suite.createTenant()
	staff := suite.createStaff(tenant.ID)
	service := suite.createService(tenant.ID)
	slot := suite.createSlot(tenant.ID, staff.ID, service.ID, time.Now().Add(24*time.Hour))
	entry := suite.createEntry(tenant.ID, service.ID, "+15550001")

	expiresAt := time.Now().Add(10 * time.Minute)
	err := suite.db.HoldSlotForEntry(suite.ctx, tenant.ID, slot.ID, entry.ID, expiresAt)
	suite.NoError(err)

	held, err := suite.db.GetSlot(suite.ctx, tenant.ID, slot.ID)
	suite.NoError(err)
	suite.Equal(types.SlotStatusHeld, held.Status)
	suite.Equal(entry.ID, held.HeldForEntry)
	suite.NotNil(held.HoldExpiresAt)
	suite.Equal(slot.Version+1, held.Version)

	notified, err := suite.db.GetWaitlistEntry(suite.ctx, tenant.ID, entry.ID)
	suite.NoError(err)
	suite.Equal(types.WaitlistStatusNotified, notified.Status)
}

func (suite *PostgresStoreTestSuite) TestHoldSlotForEntryOnlyOneWinner() {
	tenant := suite.createTenant()
	staff := suite.createStaff(tenant.ID)
	service := suite.createService(tenant.ID)
	slot := suite.createSlot(tenant.ID, staff.ID, service.ID, time.Now().Add(24*time.Hour))
	entryA := suite.createEntry(tenant.ID, service.ID, "+15550001")
	entryB := suite.createEntry(tenant.ID, service.ID, "+15550002")

	expiresAt := time.Now().Add(10 * time.Minute)
	err := suite.db.HoldSlotForEntry(suite.ctx, tenant.ID, slot.ID, entryA.ID, expiresAt)
	suite.NoError(err)

	// second hold attempt loses: slot is no longer open
	err = suite.db.HoldSlotForEntry(suite.ctx, tenant.ID, slot.ID, entryB.ID, expiresAt)
	suite.ErrorIs(err, ErrSlotNoLongerAvailable)

	// the loser's entry transition rolled back with the transaction
	entryBAfter, err := suite.db.GetWaitlistEntry(suite.ctx, tenant.ID, entryB.ID)
	suite.NoError(err)
	suite.Equal(types.WaitlistStatusActive, entryBAfter.Status)
}

func (suite *PostgresStoreTestSuite) TestHoldSlotForEntryStaleEntry() {
	tenant := suite.createTenant()
	staff := suite.createStaff(tenant.ID)
	service := suite.createService(tenant.ID)
	slot := suite.createSlot(tenant.ID, staff.ID, service.ID, time.Now().Add(24*time.Hour))
	entry := suite.createEntry(tenant.ID, service.ID, "+15550001")

	err := suite.db.RemoveWaitlistEntry(suite.ctx, tenant.ID, entry.ID)
	suite.Require().NoError(err)

	err = suite.db.HoldSlotForEntry(suite.ctx, tenant.ID, slot.ID, entry.ID, time.Now().Add(10*time.Minute))
	suite.ErrorIs(err, ErrEntryNotActive)

	// the slot is untouched
	after, err := suite.db.GetSlot(suite.ctx, tenant.ID, slot.ID)
	suite.NoError(err)
	suite.Equal(types.SlotStatusOpen, after.Status)
}

func (suite *PostgresStoreTestSuite) holdForConfirm() (*types.Tenant, *types.Slot, *types.WaitlistEntry) {
	tenant := suite.createTenant()
	staff := suite.createStaff(tenant.ID)
	service := suite.createService(tenant.ID)
	slot := suite.createSlot(tenant.ID, staff.ID, service.ID, time.Now().Add(24*time.Hour))
	entry := suite.createEntry(tenant.ID, service.ID, "+15550001")

	err := suite.db.HoldSlotForEntry(suite.ctx, tenant.ID, slot.ID, entry.ID, time.Now().Add(10*time.Minute))
	suite.Require().NoError(err)
	return tenant, slot, entry
}

func (suite *PostgresStoreTestSuite) TestConfirmHold() {
	tenant, slot, entry := suite.holdForConfirm()

	booking, err := suite.db.ConfirmHold(suite.ctx, &ConfirmHoldParams{
		TenantID: tenant.ID,
		SlotID:   slot.ID,
		EntryID:  entry.ID,
		Now:      time.Now(),
	})
	suite.NoError(err)
	suite.NotNil(booking)
	suite.Equal(types.BookingStatusConfirmed, booking.Status)
	suite.Equal(types.BookingSourceWaitlist, booking.Source)
	suite.Equal(entry.ID, booking.WaitlistEntryID)
	suite.Equal(entry.Phone, booking.CustomerPhone)

	booked, err := suite.db.GetSlot(suite.ctx, tenant.ID, slot.ID)
	suite.NoError(err)
	suite.Equal(types.SlotStatusBooked, booked.Status)
	suite.Nil(booked.HoldExpiresAt)
	suite.Empty(booked.HeldForEntry)

	confirmed, err := suite.db.GetWaitlistEntry(suite.ctx, tenant.ID, entry.ID)
	suite.NoError(err)
	suite.Equal(types.WaitlistStatusConfirmed, confirmed.Status)

	// audit record written in the same transaction
	records, err := suite.db.ListAuditLogs(suite.ctx, tenant.ID, &ListAuditLogsQuery{
		ResourceID: slot.ID,
	})
	suite.NoError(err)
	suite.Len(records, 1)
	suite.Equal("booking.confirmed", records[0].Action)
}

func (suite *PostgresStoreTestSuite) TestConfirmHoldReplayIdempotent() {
	tenant, slot, entry := suite.holdForConfirm()

	params := &ConfirmHoldParams{
		TenantID: tenant.ID,
		SlotID:   slot.ID,
		EntryID:  entry.ID,
		Now:      time.Now(),
	}
	first, err := suite.db.ConfirmHold(suite.ctx, params)
	suite.NoError(err)

	second, err := suite.db.ConfirmHold(suite.ctx, params)
	suite.NoError(err)
	suite.Equal(first.ID, second.ID)
}

func (suite *PostgresStoreTestSuite) TestConfirmHoldExpired() {
	tenant := suite.createTenant()
	staff := suite.createStaff(tenant.ID)
	service := suite.createService(tenant.ID)
	slot := suite.createSlot(tenant.ID, staff.ID, service.ID, time.Now().Add(24*time.Hour))
	entry := suite.createEntry(tenant.ID, service.ID, "+15550001")

	err := suite.db.HoldSlotForEntry(suite.ctx, tenant.ID, slot.ID, entry.ID, time.Now().Add(-time.Minute))
	suite.Require().NoError(err)

	_, err = suite.db.ConfirmHold(suite.ctx, &ConfirmHoldParams{
		TenantID: tenant.ID,
		SlotID:   slot.ID,
		EntryID:  entry.ID,
		Now:      time.Now(),
	})
	suite.ErrorIs(err, ErrHoldExpired)
}

func (suite *PostgresStoreTestSuite) TestConfirmHoldWrongEntry() {
	tenant, slot, _ := suite.holdForConfirm()
	intruder := suite.createEntry(tenant.ID, "svc_other", "+15550009")

	_, err := suite.db.ConfirmHold(suite.ctx, &ConfirmHoldParams{
		TenantID: tenant.ID,
		SlotID:   slot.ID,
		EntryID:  intruder.ID,
		Now:      time.Now(),
	})
	suite.ErrorIs(err, ErrSlotNoLongerAvailable)
}

func (suite *PostgresStoreTestSuite) TestConfirmHoldPhoneDedupe() {
	tenant := suite.createTenant()
	staff := suite.createStaff(tenant.ID)
	service := suite.createService(tenant.ID)
	slot := suite.createSlot(tenant.ID, staff.ID, service.ID, time.Now().Add(24*time.Hour))
	entry := suite.createEntry(tenant.ID, service.ID, "+15550001")
	duplicate := suite.createEntry(tenant.ID, service.ID, "+15550001")
	other := suite.createEntry(tenant.ID, service.ID, "+15550002")

	err := suite.db.HoldSlotForEntry(suite.ctx, tenant.ID, slot.ID, entry.ID, time.Now().Add(10*time.Minute))
	suite.Require().NoError(err)

	_, err = suite.db.ConfirmHold(suite.ctx, &ConfirmHoldParams{
		TenantID: tenant.ID,
		SlotID:   slot.ID,
		EntryID:  entry.ID,
		Now:      time.Now(),
	})
	suite.NoError(err)

	dupAfter, err := suite.db.GetWaitlistEntry(suite.ctx, tenant.ID, duplicate.ID)
	suite.NoError(err)
	suite.Equal(types.WaitlistStatusRemoved, dupAfter.Status)

	otherAfter, err := suite.db.GetWaitlistEntry(suite.ctx, tenant.ID, other.ID)
	suite.NoError(err)
	suite.Equal(types.WaitlistStatusActive, otherAfter.Status)
}

func (suite *PostgresStoreTestSuite) TestReleaseHold() {
	tenant, slot, entry := suite.holdForConfirm()

	err := suite.db.ReleaseHold(suite.ctx, tenant.ID, slot.ID, entry.ID)
	suite.NoError(err)

	open, err := suite.db.GetSlot(suite.ctx, tenant.ID, slot.ID)
	suite.NoError(err)
	suite.Equal(types.SlotStatusOpen, open.Status)
	suite.Nil(open.HoldExpiresAt)

	active, err := suite.db.GetWaitlistEntry(suite.ctx, tenant.ID, entry.ID)
	suite.NoError(err)
	suite.Equal(types.WaitlistStatusActive, active.Status)

	// a second release is a lost race
	err = suite.db.ReleaseHold(suite.ctx, tenant.ID, slot.ID, entry.ID)
	suite.ErrorIs(err, ErrSlotNoLongerAvailable)
}

func (suite *PostgresStoreTestSuite) TestExpireHold() {
	tenant := suite.createTenant()
	staff := suite.createStaff(tenant.ID)
	service := suite.createService(tenant.ID)
	slot := suite.createSlot(tenant.ID, staff.ID, service.ID, time.Now().Add(24*time.Hour))
	entry := suite.createEntry(tenant.ID, service.ID, "+15550001")

	err := suite.db.HoldSlotForEntry(suite.ctx, tenant.ID, slot.ID, entry.ID, time.Now().Add(-time.Second))
	suite.Require().NoError(err)

	err = suite.db.ExpireHold(suite.ctx, tenant.ID, slot.ID, time.Now())
	suite.NoError(err)

	open, err := suite.db.GetSlot(suite.ctx, tenant.ID, slot.ID)
	suite.NoError(err)
	suite.Equal(types.SlotStatusOpen, open.Status)

	active, err := suite.db.GetWaitlistEntry(suite.ctx, tenant.ID, entry.ID)
	suite.NoError(err)
	suite.Equal(types.WaitlistStatusActive, active.Status)
}

func (suite *PostgresStoreTestSuite) TestExpireHoldNotYetDue() {
	tenant, slot, _ := suite.holdForConfirm()

	err := suite.db.ExpireHold(suite.ctx, tenant.ID, slot.ID, time.Now())
	suite.ErrorIs(err, ErrSlotNoLongerAvailable)

	held, err := suite.db.GetSlot(suite.ctx, tenant.ID, slot.ID)
	suite.NoError(err)
	suite.Equal(types.SlotStatusHeld, held.Status)
}

func (suite *PostgresStoreTestSuite) TestCancelSlotReleasesHeldEntry() {
	tenant, slot, entry := suite.holdForConfirm()

	canceled, err := suite.db.CancelSlot(suite.ctx, tenant.ID, slot.ID)
	suite.NoError(err)
	suite.Equal(types.SlotStatusCanceled, canceled.Status)

	active, err := suite.db.GetWaitlistEntry(suite.ctx, tenant.ID, entry.ID)
	suite.NoError(err)
	suite.Equal(types.WaitlistStatusActive, active.Status)

	// canceling again is a no-op
	again, err := suite.db.CancelSlot(suite.ctx, tenant.ID, slot.ID)
	suite.NoError(err)
	suite.Equal(types.SlotStatusCanceled, again.Status)
}

func (suite *PostgresStoreTestSuite) TestCancelSlotBookedRejected() {
	tenant, slot, entry := suite.holdForConfirm()

	_, err := suite.db.ConfirmHold(suite.ctx, &ConfirmHoldParams{
		TenantID: tenant.ID,
		SlotID:   slot.ID,
		EntryID:  entry.ID,
		Now:      time.Now(),
	})
	suite.Require().NoError(err)

	_, err = suite.db.CancelSlot(suite.ctx, tenant.ID, slot.ID)
	suite.ErrorIs(err, ErrConflict)
}
