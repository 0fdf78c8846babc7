package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	menumodel "dinein-backend/internal/domains/menu/model"
	"dinein-backend/internal/domains/order/model"
	"dinein-backend/internal/domains/order/repository"
	tablemodel "dinein-backend/internal/domains/table/model"
	usermodel "dinein-backend/internal/domains/user/model"
)

type fakeOrderRepo struct {
	orders map[uuid.UUID]*model.Order
	// stamp is the insertion timestamp for new lines
	stamp time.Time
	// failCreates makes the next N creates report a duplicate tab
	failCreates int
}

func newFakeOrderRepo(stamp time.Time) *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*model.Order), stamp: stamp}
}

func (f *fakeOrderRepo) FindUnpaidByUserAndTable(_ context.Context, userID, tableID uuid.UUID) (*model.Order, error) {
	for _, o := range f.orders {
		if o.UserID == userID && o.TableID == tableID && o.PaymentStatus == model.PaymentStatusUnpaid {
			return o, nil
		}
	}
	return nil, model.ErrOrderNotFound
}

func (f *fakeOrderRepo) FindUnpaidByTable(_ context.Context, tableID uuid.UUID) ([]*model.Order, error) {
	var out []*model.Order
	for _, o := range f.orders {
		if o.TableID == tableID && o.PaymentStatus == model.PaymentStatusUnpaid {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) FindUnpaidScoped(ctx context.Context, tableID uuid.UUID, scope model.Scope) ([]*model.Order, error) {
	if scope.ByUser != nil {
		o, err := f.FindUnpaidByUserAndTable(ctx, *scope.ByUser, tableID)
		if err != nil {
			return nil, nil
		}
		return []*model.Order{o}, nil
	}
	return f.FindUnpaidByTable(ctx, tableID)
}

func (f *fakeOrderRepo) FindUnpaidContainingLine(_ context.Context, tableID, lineID uuid.UUID) (*model.Order, error) {
	for _, o := range f.orders {
		if o.TableID != tableID || o.PaymentStatus != model.PaymentStatusUnpaid {
			continue
		}
		for _, item := range o.Items {
			if item.ID == lineID {
				return o, nil
			}
		}
	}
	return nil, model.ErrOrderNotFound
}

func (f *fakeOrderRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*model.Order, error) {
	var out []*model.Order
	for _, id := range ids {
		if o, ok := f.orders[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) HasUnpaidTab(ctx context.Context, userID, tableID uuid.UUID) (bool, error) {
	_, err := f.FindUnpaidByUserAndTable(ctx, userID, tableID)
	return err == nil, nil
}

func (f *fakeOrderRepo) CountUnpaidTabs(ctx context.Context, tableID uuid.UUID) (int, error) {
	orders, _ := f.FindUnpaidByTable(ctx, tableID)
	return len(orders), nil
}

func (f *fakeOrderRepo) CreateOrder(_ context.Context, order *model.Order) error {
	if f.failCreates > 0 {
		f.failCreates--
		return repository.ErrDuplicateTab
	}
	order.ID = uuid.New()
	order.PaymentStatus = model.PaymentStatusUnpaid
	order.Version = 1
	for _, item := range order.Items {
		item.ID = uuid.New()
		item.OrderID = order.ID
		item.CreatedAt = f.stamp
	}
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) BumpVersion(_ context.Context, _ pgx.Tx, orderID uuid.UUID, expectedVersion int, amount decimal.Decimal) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok || o.Version != expectedVersion {
		return false, nil
	}
	o.Version++
	o.Amount = amount
	return true, nil
}

func (f *fakeOrderRepo) InsertItems(_ context.Context, _ pgx.Tx, orderID uuid.UUID, items []*model.OrderItem) error {
	for _, item := range items {
		item.ID = uuid.New()
		item.OrderID = orderID
		item.CreatedAt = f.stamp
	}
	return nil
}

func (f *fakeOrderRepo) UpdateItemQuantities(context.Context, pgx.Tx, *model.OrderItem) error {
	return nil // the fake shares pointers, quantities are already live
}

func (f *fakeOrderRepo) DeleteItem(_ context.Context, _ pgx.Tx, itemID uuid.UUID) error {
	for _, o := range f.orders {
		for i, item := range o.Items {
			if item.ID == itemID {
				o.Items = append(o.Items[:i], o.Items[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (f *fakeOrderRepo) DeleteOrder(_ context.Context, _ pgx.Tx, orderID uuid.UUID) error {
	delete(f.orders, orderID)
	return nil
}

func (f *fakeOrderRepo) MarkPaid(_ context.Context, _ pgx.Tx, orderID uuid.UUID, expectedVersion int) (bool, error) {
	o, ok := f.orders[orderID]
	if !ok || o.Version != expectedVersion || o.PaymentStatus != model.PaymentStatusUnpaid {
		return false, nil
	}
	o.PaymentStatus = model.PaymentStatusPaid
	o.Version++
	return true, nil
}

func (f *fakeOrderRepo) ListKitchenLines(context.Context, string) ([]*model.KitchenLine, error) {
	return nil, nil
}

type fakeMenu struct {
	items map[uuid.UUID]*menumodel.MenuItem
}

func (f *fakeMenu) GetItems(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*menumodel.MenuItem, error) {
	out := make(map[uuid.UUID]*menumodel.MenuItem)
	for _, id := range ids {
		if item, ok := f.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

type fakeSeating struct {
	tables map[uuid.UUID]*tablemodel.Table
}

func (f *fakeSeating) FindByID(_ context.Context, id uuid.UUID) (*tablemodel.Table, error) {
	t, ok := f.tables[id]
	if !ok {
		return nil, tablemodel.ErrTableNotFound
	}
	return t, nil
}

type fakeTxManager struct{}

func (fakeTxManager) BeginTx(context.Context) (pgx.Tx, error)  { return nil, nil }
func (fakeTxManager) CommitTx(context.Context, pgx.Tx) error   { return nil }
func (fakeTxManager) RollbackTx(context.Context, pgx.Tx) error { return nil }

type orderFixture struct {
	svc     OrderService
	repo    *fakeOrderRepo
	dinerID uuid.UUID
	tableID uuid.UUID
	phoID   uuid.UUID
	teaID   uuid.UUID
	now     time.Time
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	fx := &orderFixture{
		repo:    newFakeOrderRepo(now),
		dinerID: uuid.New(),
		tableID: uuid.New(),
		phoID:   uuid.New(),
		teaID:   uuid.New(),
		now:     now,
	}

	menu := &fakeMenu{items: map[uuid.UUID]*menumodel.MenuItem{
		fx.phoID: {ID: fx.phoID, Name: "Pho Bo", Price: decimal.NewFromInt(65000)},
		fx.teaID: {ID: fx.teaID, Name: "Iced Tea", Price: decimal.NewFromInt(15000)},
	}}
	seating := &fakeSeating{tables: map[uuid.UUID]*tablemodel.Table{
		fx.tableID: {ID: fx.tableID, TableNumber: 7, Occupants: []uuid.UUID{fx.dinerID}},
	}}

	fx.svc = NewOrderService(fx.repo, menu, seating, fakeTxManager{}, 3*time.Minute, func() time.Time { return fx.now })
	return fx
}

func (fx *orderFixture) submit(t *testing.T, items ...model.SubmitItem) *model.Order {
	t.Helper()
	order, err := fx.svc.SubmitItems(context.Background(), fx.dinerID, usermodel.RoleClient,
		&model.SubmitItemsRequest{TableID: fx.tableID, Items: items})
	require.NoError(t, err)
	return order
}

func TestSubmitItemsCreatesTabAndMergesBatch(t *testing.T) {
	fx := newOrderFixture(t)

	// 3 + 2 of the same dish in one batch collapse into one line of 5
	order := fx.submit(t,
		model.SubmitItem{MenuItemID: fx.phoID, Quantity: 3},
		model.SubmitItem{MenuItemID: fx.phoID, Quantity: 2},
		model.SubmitItem{MenuItemID: fx.teaID, Quantity: 1},
	)

	require.Len(t, order.Items, 2)
	pho := order.Items[0]
	assert.Equal(t, 5, pho.Quantity)
	assert.Equal(t, 5, pho.QuantityPreparing)
	assert.Equal(t, 0, pho.QuantityServed)
	assert.Equal(t, 1, pho.SequenceMark)
	assert.True(t, decimal.NewFromInt(340000).Equal(order.Amount), "got %s", order.Amount)
}

func TestSubmitItemsDistinctOptionsStaySeparate(t *testing.T) {
	fx := newOrderFixture(t)

	order := fx.submit(t,
		model.SubmitItem{MenuItemID: fx.phoID, Quantity: 1, Options: "no onions"},
		model.SubmitItem{MenuItemID: fx.phoID, Quantity: 1},
	)
	assert.Len(t, order.Items, 2)
}

func TestSecondSubmissionMergesIntoOpenTab(t *testing.T) {
	fx := newOrderFixture(t)

	fx.submit(t, model.SubmitItem{MenuItemID: fx.phoID, Quantity: 2})
	order := fx.submit(t,
		model.SubmitItem{MenuItemID: fx.phoID, Quantity: 3},
		model.SubmitItem{MenuItemID: fx.teaID, Quantity: 1},
	)

	require.Len(t, order.Items, 2)
	pho := order.Items[0]
	assert.Equal(t, 5, pho.Quantity)
	assert.Equal(t, 1, pho.SequenceMark, "a merged line keeps its original round")
	assert.Equal(t, 2, order.Items[1].SequenceMark, "a genuinely new line opens the next round")

	// Still a single tab for this diner at this table
	assert.Len(t, fx.repo.orders, 1)
}

func TestSubmitItemsUnknownMenuItemRejectsBatch(t *testing.T) {
	fx := newOrderFixture(t)
	ghost := uuid.New()

	_, err := fx.svc.SubmitItems(context.Background(), fx.dinerID, usermodel.RoleClient,
		&model.SubmitItemsRequest{TableID: fx.tableID, Items: []model.SubmitItem{
			{MenuItemID: fx.phoID, Quantity: 1},
			{MenuItemID: ghost, Quantity: 1},
		}})

	var unknown *model.UnknownMenuItemsError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []uuid.UUID{ghost}, unknown.IDs)
	assert.Empty(t, fx.repo.orders, "nothing is written when any id is unknown")
}

func TestSubmitItemsRequiresSeat(t *testing.T) {
	fx := newOrderFixture(t)
	stranger := uuid.New()

	_, err := fx.svc.SubmitItems(context.Background(), stranger, usermodel.RoleClient,
		&model.SubmitItemsRequest{TableID: fx.tableID, Items: []model.SubmitItem{
			{MenuItemID: fx.phoID, Quantity: 1},
		}})
	assert.ErrorIs(t, err, model.ErrNotSeatedAtTable)
}

func TestStaffSubmitOnBehalfOfDiner(t *testing.T) {
	fx := newOrderFixture(t)
	staffID := uuid.New()

	order, err := fx.svc.SubmitItems(context.Background(), staffID, usermodel.RoleStaff,
		&model.SubmitItemsRequest{TableID: fx.tableID, UserID: &fx.dinerID, Items: []model.SubmitItem{
			{MenuItemID: fx.phoID, Quantity: 1},
		}})
	require.NoError(t, err)
	assert.Equal(t, fx.dinerID, order.UserID, "the tab belongs to the diner, not the waiter")
}

func TestSubmitItemsRetriesLostCreateRace(t *testing.T) {
	fx := newOrderFixture(t)
	fx.repo.failCreates = 1

	order := fx.submit(t, model.SubmitItem{MenuItemID: fx.phoID, Quantity: 1})
	assert.NotNil(t, order)
}

func TestTransitionLineBucketsStayConsistent(t *testing.T) {
	fx := newOrderFixture(t)
	order := fx.submit(t, model.SubmitItem{MenuItemID: fx.phoID, Quantity: 4})
	lineID := order.Items[0].ID

	line, err := fx.svc.TransitionLine(context.Background(), fx.tableID, lineID, usermodel.RoleStaff,
		&model.TransitionLineRequest{Target: model.StatusServed, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, line.QuantityPreparing)
	assert.Equal(t, 3, line.QuantityServed)
	assert.Equal(t, line.Quantity, line.QuantityPreparing+line.QuantityServed)
	assert.Equal(t, model.StatusPreparing, line.Status(), "partially served lines still count as preparing")

	// Serving the rest flips the derived status
	line, err = fx.svc.TransitionLine(context.Background(), fx.tableID, lineID, usermodel.RoleStaff,
		&model.TransitionLineRequest{Target: model.StatusServed, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, model.StatusServed, line.Status())

	// More than available is refused
	_, err = fx.svc.TransitionLine(context.Background(), fx.tableID, lineID, usermodel.RoleStaff,
		&model.TransitionLineRequest{Target: model.StatusServed, Quantity: 1})
	assert.ErrorIs(t, err, model.ErrQuantityExceedsAvailable)
}

func TestUnserveIsStaffOnly(t *testing.T) {
	fx := newOrderFixture(t)
	order := fx.submit(t, model.SubmitItem{MenuItemID: fx.phoID, Quantity: 2})
	lineID := order.Items[0].ID

	_, err := fx.svc.TransitionLine(context.Background(), fx.tableID, lineID, usermodel.RoleStaff,
		&model.TransitionLineRequest{Target: model.StatusServed, Quantity: 2})
	require.NoError(t, err)

	_, err = fx.svc.TransitionLine(context.Background(), fx.tableID, lineID, usermodel.RoleClient,
		&model.TransitionLineRequest{Target: model.StatusPreparing, Quantity: 1})
	assert.ErrorIs(t, err, model.ErrUnserveStaffOnly)

	line, err := fx.svc.TransitionLine(context.Background(), fx.tableID, lineID, usermodel.RoleStaff,
		&model.TransitionLineRequest{Target: model.StatusPreparing, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, line.QuantityPreparing)
}

func TestDinerRemovesOwnPreparingUnitsWithinGrace(t *testing.T) {
	fx := newOrderFixture(t)
	order := fx.submit(t, model.SubmitItem{MenuItemID: fx.phoID, Quantity: 3})
	lineID := order.Items[0].ID

	err := fx.svc.RemoveUnits(context.Background(), fx.dinerID, usermodel.RoleClient, fx.tableID, lineID,
		&model.RemoveUnitsRequest{Quantity: 2})
	require.NoError(t, err)

	stored := fx.repo.orders[order.ID]
	assert.Equal(t, 1, stored.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(65000).Equal(stored.Amount), "got %s", stored.Amount)
}

func TestDinerRemovalBlockedAfterGraceWindow(t *testing.T) {
	fx := newOrderFixture(t)
	order := fx.submit(t, model.SubmitItem{MenuItemID: fx.phoID, Quantity: 1})
	lineID := order.Items[0].ID

	fx.now = fx.now.Add(10 * time.Minute)

	err := fx.svc.RemoveUnits(context.Background(), fx.dinerID, usermodel.RoleClient, fx.tableID, lineID,
		&model.RemoveUnitsRequest{Quantity: 1})
	assert.ErrorIs(t, err, model.ErrDeletionWindowExpired)
}

func TestDinerCannotRemoveServedUnits(t *testing.T) {
	fx := newOrderFixture(t)
	order := fx.submit(t, model.SubmitItem{MenuItemID: fx.phoID, Quantity: 2})
	lineID := order.Items[0].ID

	_, err := fx.svc.TransitionLine(context.Background(), fx.tableID, lineID, usermodel.RoleStaff,
		&model.TransitionLineRequest{Target: model.StatusServed, Quantity: 2})
	require.NoError(t, err)

	err = fx.svc.RemoveUnits(context.Background(), fx.dinerID, usermodel.RoleClient, fx.tableID, lineID,
		&model.RemoveUnitsRequest{Quantity: 1})
	assert.ErrorIs(t, err, model.ErrItemAlreadyServed)
}

func TestDinerOverRemovalReportsQuantity(t *testing.T) {
	fx := newOrderFixture(t)
	order := fx.submit(t, model.SubmitItem{MenuItemID: fx.phoID, Quantity: 2})
	lineID := order.Items[0].ID

	// Nothing is served yet, so asking for more than the line holds is
	// a quantity problem, not a served-units one
	err := fx.svc.RemoveUnits(context.Background(), fx.dinerID, usermodel.RoleClient, fx.tableID, lineID,
		&model.RemoveUnitsRequest{Quantity: 5})
	assert.ErrorIs(t, err, model.ErrQuantityExceedsAvailable)
}

func TestStaffRemovesServedUnitsAndEmptyTabDisappears(t *testing.T) {
	fx := newOrderFixture(t)
	order := fx.submit(t, model.SubmitItem{MenuItemID: fx.phoID, Quantity: 2})
	lineID := order.Items[0].ID

	_, err := fx.svc.TransitionLine(context.Background(), fx.tableID, lineID, usermodel.RoleStaff,
		&model.TransitionLineRequest{Target: model.StatusServed, Quantity: 2})
	require.NoError(t, err)

	err = fx.svc.RemoveUnits(context.Background(), uuid.New(), usermodel.RoleStaff, fx.tableID, lineID,
		&model.RemoveUnitsRequest{Quantity: 2})
	require.NoError(t, err)

	assert.Empty(t, fx.repo.orders, "a tab with nothing left on it is gone")
}

func TestTableViewMergesAcrossDiners(t *testing.T) {
	fx := newOrderFixture(t)
	secondDiner := uuid.New()
	seating := &fakeSeating{tables: map[uuid.UUID]*tablemodel.Table{
		fx.tableID: {ID: fx.tableID, TableNumber: 7, Occupants: []uuid.UUID{fx.dinerID, secondDiner}},
	}}
	fx.svc = NewOrderService(fx.repo, &fakeMenu{items: map[uuid.UUID]*menumodel.MenuItem{
		fx.phoID: {ID: fx.phoID, Name: "Pho Bo", Price: decimal.NewFromInt(65000)},
	}}, seating, fakeTxManager{}, 3*time.Minute, func() time.Time { return fx.now })

	fx.submit(t, model.SubmitItem{MenuItemID: fx.phoID, Quantity: 2})
	_, err := fx.svc.SubmitItems(context.Background(), secondDiner, usermodel.RoleClient,
		&model.SubmitItemsRequest{TableID: fx.tableID, Items: []model.SubmitItem{
			{MenuItemID: fx.phoID, Quantity: 1},
		}})
	require.NoError(t, err)

	view, err := fx.svc.GetTableView(context.Background(), fx.tableID)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1, "same dish from two diners merges into one line")
	assert.Equal(t, 3, view.Lines[0].Quantity)
	assert.Len(t, view.Lines[0].PerUser, 2)
	assert.True(t, decimal.NewFromInt(195000).Equal(view.Total), "got %s", view.Total)
}
