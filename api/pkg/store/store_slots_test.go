package store

import (
	"time"

	"github.com/openslot/openslot/api/pkg/types"
)

func (suite *PostgresStoreTestSuite) TestCreateSlotOverlapRejected() {
	tenant := suite.createTenant()
	staff := suite.createStaff(tenant.ID)
	service := suite.createService(tenant.ID)

	start := time.Now().Add(24 * time.Hour)
	suite.createSlot(tenant.ID, staff.ID, service.ID, start)

	// overlapping window on the same staff member
	_, err := suite.db.CreateSlot(suite.ctx, &types.Slot{
		TenantID:  tenant.ID,
		StaffID:   staff.ID,
		ServiceID: service.ID,
		StartTime: start.Add(15 * time.Minute),
		EndTime:   start.Add(45 * time.Minute),
	})
	suite.ErrorIs(err, ErrConflict)

	// same window, different staff member is fine
	other := suite.createStaff(tenant.ID)
	_, err = suite.db.CreateSlot(suite.ctx, &types.Slot{
		TenantID:  tenant.ID,
		StaffID:   other.ID,
		ServiceID: service.ID,
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
	})
	suite.NoError(err)
}

func (suite *PostgresStoreTestSuite) TestCreateSlotInPastRejected() {
	tenant := suite.createTenant()
	staff := suite.createStaff(tenant.ID)
	service := suite.createService(tenant.ID)

	_, err := suite.db.CreateSlot(suite.ctx, &types.Slot{
		TenantID:  tenant.ID,
		StaffID:   staff.ID,
		ServiceID: service.ID,
		StartTime: time.Now().Add(-2 * time.Hour),
		EndTime:   time.Now().Add(-90 * time.Minute),
	})
	suite.Error(err)
}

func (suite *PostgresStoreTestSuite) TestListSlotsFilters() {
	tenant := suite.createTenant()
	staff := suite.createStaff(tenant.ID)
	service := suite.createService(tenant.ID)

	start := time.Now().Add(24 * time.Hour)
	slot := suite.createSlot(tenant.ID, staff.ID, service.ID, start)
	suite.createSlot(tenant.ID, staff.ID, service.ID, start.Add(2*time.Hour))

	slots, err := suite.db.ListSlots(suite.ctx, tenant.ID, &ListSlotsQuery{
		Status: types.SlotStatusOpen,
		From:   start.Add(-time.Minute),
		To:     start.Add(time.Hour),
	})
	suite.NoError(err)
	suite.Len(slots, 1)
	suite.Equal(slot.ID, slots[0].ID)
}

func (suite *PostgresStoreTestSuite) TestListSlotsTenantIsolation() {
	tenantA := suite.createTenant()
	tenantB := suite.createTenant()
	staff := suite.createStaff(tenantA.ID)
	service := suite.createService(tenantA.ID)

	suite.createSlot(tenantA.ID, staff.ID, service.ID, time.Now().Add(24*time.Hour))

	slots, err := suite.db.ListSlots(suite.ctx, tenantB.ID, nil)
	suite.NoError(err)
	suite.Empty(slots)
}

func (suite *PostgresStoreTestSuite) TestListExpiredHolds() {
	tenant := suite.createTenant()
	staff := suite.createStaff(tenant.ID)
	service := suite.createService(tenant.ID)

	start := time.Now().Add(24 * time.Hour)
	expired := suite.createSlot(tenant.ID, staff.ID, service.ID, start)
	live := suite.createSlot(tenant.ID, staff.ID, service.ID, start.Add(time.Hour))
	entryA := suite.createEntry(tenant.ID, service.ID, "+15550001")
	entryB := suite.createEntry(tenant.ID, service.ID, "+15550002")

	err := suite.db.HoldSlotForEntry(suite.ctx, tenant.ID, expired.ID, entryA.ID, time.Now().Add(-time.Minute))
	suite.Require().NoError(err)
	err = suite.db.HoldSlotForEntry(suite.ctx, tenant.ID, live.ID, entryB.ID, time.Now().Add(10*time.Minute))
	suite.Require().NoError(err)

	slots, err := suite.db.ListExpiredHolds(suite.ctx, time.Now(), 10)
	suite.NoError(err)
	suite.Len(slots, 1)
	suite.Equal(expired.ID, slots[0].ID)
	suite.Equal(entryA.ID, slots[0].HeldForEntry)
}
