package store

import (
	"time"

	"github.com/openslot/openslot/api/pkg/types"
)

func (suite *PostgresStoreTestSuite) TestCreateWaitlistEntryPhoneCap() {
	tenant := suite.createTenant()
	service := suite.createService(tenant.ID)

	makeEntry := func() (*types.WaitlistEntry, error) {
		return suite.db.CreateWaitlistEntry(suite.ctx, &types.WaitlistEntry{
			TenantID:     tenant.ID,
			CustomerName: "Jordan",
			Phone:        "+15550001",
			ServiceID:    service.ID,
			EarliestTime: time.Now(),
			LatestTime:   time.Now().Add(24 * time.Hour),
		}, 2)
	}

	_, err := makeEntry()
	suite.NoError(err)
	_, err = makeEntry()
	suite.NoError(err)

	_, err = makeEntry()
	suite.ErrorIs(err, ErrPhoneCapReached)

	// a different tenant has its own cap
	otherTenant := suite.createTenant()
	_, err = suite.db.CreateWaitlistEntry(suite.ctx, &types.WaitlistEntry{
		TenantID:     otherTenant.ID,
		CustomerName: "Jordan",
		Phone:        "+15550001",
		ServiceID:    service.ID,
		EarliestTime: time.Now(),
		LatestTime:   time.Now().Add(24 * time.Hour),
	}, 2)
	suite.NoError(err)
}

func (suite *PostgresStoreTestSuite) TestPhoneCapIgnoresRemovedEntries() {
	tenant := suite.createTenant()
	service := suite.createService(tenant.ID)

	entry := suite.createEntry(tenant.ID, service.ID, "+15550001")
	err := suite.db.RemoveWaitlistEntry(suite.ctx, tenant.ID, entry.ID)
	suite.Require().NoError(err)

	_, err = suite.db.CreateWaitlistEntry(suite.ctx, &types.WaitlistEntry{
		TenantID:     tenant.ID,
		CustomerName: "Jordan",
		Phone:        "+15550001",
		ServiceID:    service.ID,
		EarliestTime: time.Now(),
		LatestTime:   time.Now().Add(24 * time.Hour),
	}, 1)
	suite.NoError(err)
}

func (suite *PostgresStoreTestSuite) TestListCandidates() {
	tenant := suite.createTenant()
	staff := suite.createStaff(tenant.ID)
	otherStaff := suite.createStaff(tenant.ID)
	service := suite.createService(tenant.ID)
	otherService := suite.createService(tenant.ID)

	start := time.Now().Add(24 * time.Hour)
	end := start.Add(30 * time.Minute)

	newEntry := func(serviceID, staffID string, score int) *types.WaitlistEntry {
		entry, err := suite.db.CreateWaitlistEntry(suite.ctx, &types.WaitlistEntry{
			TenantID:      tenant.ID,
			CustomerName:  "c",
			Phone:         "+1555" + serviceID + staffID,
			ServiceID:     serviceID,
			StaffID:       staffID,
			EarliestTime:  start.Add(-time.Hour),
			LatestTime:    end.Add(time.Hour),
			PriorityScore: score,
		}, 0)
		suite.Require().NoError(err)
		return entry
	}

	matchAnyStaff := newEntry(service.ID, "", 50)
	matchExactStaff := newEntry(service.ID, staff.ID, 70)
	newEntry(service.ID, otherStaff.ID, 90) // wrong staff preference
	newEntry(otherService.ID, "", 90)       // wrong service

	// window too narrow
	_, err := suite.db.CreateWaitlistEntry(suite.ctx, &types.WaitlistEntry{
		TenantID:     tenant.ID,
		CustomerName: "late riser",
		Phone:        "+15559999",
		ServiceID:    service.ID,
		EarliestTime: start.Add(10 * time.Minute),
		LatestTime:   end.Add(time.Hour),
	}, 0)
	suite.Require().NoError(err)

	candidates, err := suite.db.ListCandidates(suite.ctx, tenant.ID, &CandidateQuery{
		ServiceID: service.ID,
		StaffID:   staff.ID,
		StartTime: start,
		EndTime:   end,
	})
	suite.NoError(err)
	suite.Len(candidates, 2)
	// ordered by priority score descending
	suite.Equal(matchExactStaff.ID, candidates[0].ID)
	suite.Equal(matchAnyStaff.ID, candidates[1].ID)
}

func (suite *PostgresStoreTestSuite) TestListCandidatesExcludesNotified() {
	tenant := suite.createTenant()
	staff := suite.createStaff(tenant.ID)
	service := suite.createService(tenant.ID)
	slot := suite.createSlot(tenant.ID, staff.ID, service.ID, time.Now().Add(24*time.Hour))
	entry := suite.createEntry(tenant.ID, service.ID, "+15550001")

	err := suite.db.HoldSlotForEntry(suite.ctx, tenant.ID, slot.ID, entry.ID, time.Now().Add(10*time.Minute))
	suite.Require().NoError(err)

	candidates, err := suite.db.ListCandidates(suite.ctx, tenant.ID, &CandidateQuery{
		ServiceID: service.ID,
		StaffID:   staff.ID,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
	})
	suite.NoError(err)
	suite.Empty(candidates)
}

func (suite *PostgresStoreTestSuite) TestListCandidatesTenantIsolation() {
	tenantA := suite.createTenant()
	tenantB := suite.createTenant()
	service := suite.createService(tenantA.ID)
	suite.createEntry(tenantA.ID, service.ID, "+15550001")

	candidates, err := suite.db.ListCandidates(suite.ctx, tenantB.ID, &CandidateQuery{
		ServiceID: service.ID,
		StartTime: time.Now(),
		EndTime:   time.Now().Add(30 * time.Minute),
	})
	suite.NoError(err)
	suite.Empty(candidates)
}

func (suite *PostgresStoreTestSuite) TestRemoveWaitlistEntry() {
	tenant := suite.createTenant()
	service := suite.createService(tenant.ID)
	entry := suite.createEntry(tenant.ID, service.ID, "+15550001")

	err := suite.db.RemoveWaitlistEntry(suite.ctx, tenant.ID, entry.ID)
	suite.NoError(err)

	removed, err := suite.db.GetWaitlistEntry(suite.ctx, tenant.ID, entry.ID)
	suite.NoError(err)
	suite.Equal(types.WaitlistStatusRemoved, removed.Status)

	// removing a removed entry is a miss
	err = suite.db.RemoveWaitlistEntry(suite.ctx, tenant.ID, entry.ID)
	suite.ErrorIs(err, ErrNotFound)
}

func (suite *PostgresStoreTestSuite) TestUpdateWaitlistEntryStatusGuard() {
	tenant := suite.createTenant()
	service := suite.createService(tenant.ID)
	entry := suite.createEntry(tenant.ID, service.ID, "+15550001")

	err := suite.db.UpdateWaitlistEntryStatus(suite.ctx, tenant.ID, entry.ID,
		types.WaitlistStatusNotified, types.WaitlistStatusActive)
	suite.ErrorIs(err, ErrEntryNotActive)

	err = suite.db.UpdateWaitlistEntryStatus(suite.ctx, tenant.ID, entry.ID,
		types.WaitlistStatusActive, types.WaitlistStatusNotified)
	suite.NoError(err)
}
