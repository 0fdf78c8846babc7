package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinein-backend/internal/domains/table/model"
	usermodel "dinein-backend/internal/domains/user/model"
)

type fakeTableRepo struct {
	tables map[uuid.UUID]*model.Table
	// loseSeatRace makes the next SeatFirstParty report a lost race
	loseSeatRace bool
}

func newFakeTableRepo() *fakeTableRepo {
	return &fakeTableRepo{tables: make(map[uuid.UUID]*model.Table)}
}

func (f *fakeTableRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Table, error) {
	t, ok := f.tables[id]
	if !ok || t.IsDeleted {
		return nil, model.ErrTableNotFound
	}
	return t, nil
}

func (f *fakeTableRepo) FindByNumber(_ context.Context, number int) (*model.Table, error) {
	for _, t := range f.tables {
		if t.TableNumber == number && !t.IsDeleted {
			return t, nil
		}
	}
	return nil, model.ErrTableNotFound
}

func (f *fakeTableRepo) FindByOccupant(_ context.Context, userID uuid.UUID) (*model.Table, error) {
	for _, t := range f.tables {
		if t.IsOccupiedBy(userID) {
			return t, nil
		}
	}
	return nil, model.ErrNotSeated
}

func (f *fakeTableRepo) List(context.Context) ([]*model.Table, error) {
	var out []*model.Table
	for _, t := range f.tables {
		if !t.IsDeleted {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTableRepo) SeatFirstParty(_ context.Context, tableID, userID uuid.UUID) (bool, error) {
	if f.loseSeatRace {
		f.loseSeatRace = false
		return false, nil
	}
	t := f.tables[tableID]
	if t.LockState != model.LockStateOpen || len(t.Occupants) > 0 {
		return false, nil
	}
	t.Occupants = []uuid.UUID{userID}
	t.Version++
	return true, nil
}

func (f *fakeTableRepo) AddOccupant(_ context.Context, tableID, userID uuid.UUID) (bool, error) {
	t := f.tables[tableID]
	if t.LockState != model.LockStateOpen {
		return false, nil
	}
	if !t.IsOccupiedBy(userID) {
		t.Occupants = append(t.Occupants, userID)
		t.Version++
	}
	return true, nil
}

func (f *fakeTableRepo) RemoveOccupant(_ context.Context, tableID, userID uuid.UUID) error {
	t := f.tables[tableID]
	for i, id := range t.Occupants {
		if id == userID {
			t.Occupants = append(t.Occupants[:i], t.Occupants[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeTableRepo) Lock(_ context.Context, tableID uuid.UUID) error {
	t := f.tables[tableID]
	t.LockState = model.LockStateLocked
	t.PaymentLockState = model.LockStateLocked
	t.Occupants = nil
	t.ClaimingStaff = nil
	return nil
}

func (f *fakeTableRepo) Open(_ context.Context, tableID uuid.UUID) error {
	t := f.tables[tableID]
	t.LockState = model.LockStateOpen
	t.PaymentLockState = model.LockStateOpen
	return nil
}

func (f *fakeTableRepo) ClaimPayment(_ context.Context, tableID, staffID uuid.UUID) (bool, error) {
	t := f.tables[tableID]
	if t.PaymentLockState != model.LockStateOpen {
		return false, nil
	}
	t.PaymentLockState = model.LockStateLocked
	t.ClaimingStaff = []uuid.UUID{staffID}
	return true, nil
}

func (f *fakeTableRepo) ReleasePaymentClaim(_ context.Context, tableID uuid.UUID) error {
	t := f.tables[tableID]
	t.PaymentLockState = model.LockStateOpen
	t.ClaimingStaff = nil
	return nil
}

func (f *fakeTableRepo) ReleasePaymentClaimTx(ctx context.Context, _ pgx.Tx, tableID uuid.UUID) error {
	return f.ReleasePaymentClaim(ctx, tableID)
}

func (f *fakeTableRepo) Create(_ context.Context, t *model.Table) error {
	for _, existing := range f.tables {
		if existing.TableNumber == t.TableNumber && !existing.IsDeleted {
			return model.ErrTableNumberExists
		}
	}
	t.ID = uuid.New()
	t.LockState = model.LockStateLocked
	t.PaymentLockState = model.LockStateLocked
	f.tables[t.ID] = t
	return nil
}

func (f *fakeTableRepo) UpdateNumber(_ context.Context, id uuid.UUID, number int) error {
	t, ok := f.tables[id]
	if !ok {
		return model.ErrTableNotFound
	}
	t.TableNumber = number
	return nil
}

func (f *fakeTableRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	t, ok := f.tables[id]
	if !ok {
		return model.ErrTableNotFound
	}
	t.IsDeleted = true
	return nil
}

type fakeTabChecker struct {
	unpaidByUser  map[uuid.UUID]bool
	unpaidByTable map[uuid.UUID]int
}

func (f *fakeTabChecker) HasUnpaidTab(_ context.Context, userID, _ uuid.UUID) (bool, error) {
	return f.unpaidByUser[userID], nil
}

func (f *fakeTabChecker) CountUnpaidTabs(_ context.Context, tableID uuid.UUID) (int, error) {
	return f.unpaidByTable[tableID], nil
}

type memoryCache struct {
	values map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]string)}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	v, ok := m.values[key]
	if !ok {
		return false, nil
	}
	*dest.(*string) = v
	return true, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryCache) Ping(context.Context) error { return nil }

func (m *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.values[key]
	return ok, nil
}

func (m *memoryCache) Expire(context.Context, string, time.Duration) error { return nil }

func (m *memoryCache) TTL(context.Context, string) (time.Duration, error) { return 0, nil }

type tableFixture struct {
	svc     TableService
	repo    *fakeTableRepo
	tabs    *fakeTabChecker
	cache   *memoryCache
	tableID uuid.UUID
}

func newTableFixture() *tableFixture {
	fx := &tableFixture{
		repo:  newFakeTableRepo(),
		cache: newMemoryCache(),
		tabs: &fakeTabChecker{
			unpaidByUser:  make(map[uuid.UUID]bool),
			unpaidByTable: make(map[uuid.UUID]int),
		},
	}

	table := &model.Table{
		ID:               uuid.New(),
		TableNumber:      7,
		LockState:        model.LockStateOpen,
		PaymentLockState: model.LockStateOpen,
		Version:          1,
	}
	fx.repo.tables[table.ID] = table
	fx.tableID = table.ID

	fx.svc = NewTableService(fx.repo, fx.tabs, fx.cache, 4*time.Hour)
	return fx
}

func (fx *tableFixture) admitHard(t *testing.T, userID uuid.UUID) *model.Table {
	t.Helper()
	table, err := fx.svc.Admit(context.Background(), userID, &model.AdmitRequest{
		TableID:  fx.tableID,
		CodeType: model.CodeTypeHard,
	})
	require.NoError(t, err)
	return table
}

func TestAdmitHardCodeSeatsFirstParty(t *testing.T) {
	fx := newTableFixture()
	dinerID := uuid.New()

	table := fx.admitHard(t, dinerID)
	assert.True(t, table.IsOccupiedBy(dinerID))
	assert.Len(t, table.Occupants, 1)
}

func TestAdmitHardCodeReentryIsNoop(t *testing.T) {
	fx := newTableFixture()
	dinerID := uuid.New()

	fx.admitHard(t, dinerID)
	table := fx.admitHard(t, dinerID)
	assert.Len(t, table.Occupants, 1, "re-entry must not seat twice")
}

func TestAdmitHardCodeRefusesOccupiedTable(t *testing.T) {
	fx := newTableFixture()
	fx.admitHard(t, uuid.New())

	_, err := fx.svc.Admit(context.Background(), uuid.New(), &model.AdmitRequest{
		TableID:  fx.tableID,
		CodeType: model.CodeTypeHard,
	})
	assert.ErrorIs(t, err, model.ErrTableOccupied)
}

func TestAdmitHardCodeLostRaceReportsOccupied(t *testing.T) {
	fx := newTableFixture()
	fx.repo.loseSeatRace = true

	_, err := fx.svc.Admit(context.Background(), uuid.New(), &model.AdmitRequest{
		TableID:  fx.tableID,
		CodeType: model.CodeTypeHard,
	})
	assert.ErrorIs(t, err, model.ErrTableOccupied)
}

func TestAdmitRefusesLockedTable(t *testing.T) {
	fx := newTableFixture()
	fx.repo.tables[fx.tableID].LockState = model.LockStateLocked

	_, err := fx.svc.Admit(context.Background(), uuid.New(), &model.AdmitRequest{
		TableID:  fx.tableID,
		CodeType: model.CodeTypeHard,
	})
	assert.ErrorIs(t, err, model.ErrTableLocked)
}

func TestAdmitRefusesSecondTable(t *testing.T) {
	fx := newTableFixture()
	dinerID := uuid.New()
	fx.admitHard(t, dinerID)

	other := &model.Table{
		ID:          uuid.New(),
		TableNumber: 8,
		LockState:   model.LockStateOpen,
	}
	fx.repo.tables[other.ID] = other

	_, err := fx.svc.Admit(context.Background(), dinerID, &model.AdmitRequest{
		TableID:  other.ID,
		CodeType: model.CodeTypeHard,
	})
	assert.ErrorIs(t, err, model.ErrAlreadySeatedElsewhere)
}

func TestSoftCodeAdmitsLatecomer(t *testing.T) {
	fx := newTableFixture()
	firstDiner := uuid.New()
	fx.admitHard(t, firstDiner)

	issued, err := fx.svc.IssueSoftCode(context.Background(), firstDiner, fx.tableID, usermodel.RoleClient)
	require.NoError(t, err)
	require.NotEmpty(t, issued.Code)

	latecomer := uuid.New()
	table, err := fx.svc.Admit(context.Background(), latecomer, &model.AdmitRequest{
		TableID:  fx.tableID,
		CodeType: model.CodeTypeSoft,
		SoftCode: issued.Code,
	})
	require.NoError(t, err)
	assert.Len(t, table.Occupants, 2)
	assert.True(t, table.IsOccupiedBy(latecomer))
}

func TestSoftCodeRejectsWrongCode(t *testing.T) {
	fx := newTableFixture()
	firstDiner := uuid.New()
	fx.admitHard(t, firstDiner)

	_, err := fx.svc.IssueSoftCode(context.Background(), firstDiner, fx.tableID, usermodel.RoleClient)
	require.NoError(t, err)

	_, err = fx.svc.Admit(context.Background(), uuid.New(), &model.AdmitRequest{
		TableID:  fx.tableID,
		CodeType: model.CodeTypeSoft,
		SoftCode: "totally-wrong",
	})
	assert.ErrorIs(t, err, model.ErrInvalidSoftCode)
}

func TestIssueSoftCodeRequiresSeatUnlessStaff(t *testing.T) {
	fx := newTableFixture()
	fx.admitHard(t, uuid.New())

	_, err := fx.svc.IssueSoftCode(context.Background(), uuid.New(), fx.tableID, usermodel.RoleClient)
	assert.ErrorIs(t, err, model.ErrNotSeated)

	_, err = fx.svc.IssueSoftCode(context.Background(), uuid.New(), fx.tableID, usermodel.RoleStaff)
	assert.NoError(t, err)
}

func TestReleaseRefusedWhileTabUnpaid(t *testing.T) {
	fx := newTableFixture()
	dinerID := uuid.New()
	fx.admitHard(t, dinerID)
	fx.tabs.unpaidByUser[dinerID] = true

	err := fx.svc.Release(context.Background(), dinerID)
	assert.ErrorIs(t, err, model.ErrUnsettledTabExists)

	fx.tabs.unpaidByUser[dinerID] = false
	require.NoError(t, fx.svc.Release(context.Background(), dinerID))
	assert.Empty(t, fx.repo.tables[fx.tableID].Occupants)
}

func TestLockingRefusedWhileTabsRemain(t *testing.T) {
	fx := newTableFixture()
	fx.admitHard(t, uuid.New())
	fx.tabs.unpaidByTable[fx.tableID] = 1

	_, err := fx.svc.SetLockState(context.Background(), fx.tableID, model.LockStateLocked)
	assert.ErrorIs(t, err, model.ErrUnsettledTabsRemain)
}

func TestLockingClearsTableAndSoftCode(t *testing.T) {
	fx := newTableFixture()
	dinerID := uuid.New()
	fx.admitHard(t, dinerID)
	_, err := fx.svc.IssueSoftCode(context.Background(), dinerID, fx.tableID, usermodel.RoleStaff)
	require.NoError(t, err)

	table, err := fx.svc.SetLockState(context.Background(), fx.tableID, model.LockStateLocked)
	require.NoError(t, err)

	assert.Equal(t, model.LockStateLocked, table.LockState)
	assert.Empty(t, table.Occupants)
	assert.Empty(t, fx.cache.values, "locking invalidates the session code")

	_, err = fx.svc.SetLockState(context.Background(), fx.tableID, model.LockStateLocked)
	assert.ErrorIs(t, err, model.ErrTableAlreadyInThatState)
}

func TestPaymentClaimIsExclusive(t *testing.T) {
	fx := newTableFixture()
	firstStaff := uuid.New()
	secondStaff := uuid.New()

	table, err := fx.svc.SetPaymentLockState(context.Background(), fx.tableID, firstStaff, model.LockStateLocked)
	require.NoError(t, err)
	assert.True(t, table.IsClaimedBy(firstStaff))

	// Re-claim by the holder succeeds quietly
	_, err = fx.svc.SetPaymentLockState(context.Background(), fx.tableID, firstStaff, model.LockStateLocked)
	assert.NoError(t, err)

	_, err = fx.svc.SetPaymentLockState(context.Background(), fx.tableID, secondStaff, model.LockStateLocked)
	assert.ErrorIs(t, err, model.ErrPaymentAlreadyClaimed)

	// Releasing frees it for the next claimer
	_, err = fx.svc.SetPaymentLockState(context.Background(), fx.tableID, firstStaff, model.LockStateOpen)
	require.NoError(t, err)
	table, err = fx.svc.SetPaymentLockState(context.Background(), fx.tableID, secondStaff, model.LockStateLocked)
	require.NoError(t, err)
	assert.True(t, table.IsClaimedBy(secondStaff))
}

func TestCreateTableStartsLocked(t *testing.T) {
	fx := newTableFixture()

	table, err := fx.svc.CreateTable(context.Background(), &model.CreateTableRequest{TableNumber: 12})
	require.NoError(t, err)
	assert.Equal(t, model.LockStateLocked, table.LockState)

	_, err = fx.svc.CreateTable(context.Background(), &model.CreateTableRequest{TableNumber: 12})
	assert.ErrorIs(t, err, model.ErrTableNumberExists)
}

func TestDeleteTableRequiresLocked(t *testing.T) {
	fx := newTableFixture()

	err := fx.svc.DeleteTable(context.Background(), fx.tableID)
	assert.ErrorIs(t, err, model.ErrTableNotLocked)

	_, err = fx.svc.SetLockState(context.Background(), fx.tableID, model.LockStateLocked)
	require.NoError(t, err)
	require.NoError(t, fx.svc.DeleteTable(context.Background(), fx.tableID))

	_, err = fx.svc.CurrentTable(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrNotSeated)
}
