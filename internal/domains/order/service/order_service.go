package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dinein-backend/internal/domains/order/model"
	"dinein-backend/internal/domains/order/repository"
	usermodel "dinein-backend/internal/domains/user/model"
	"dinein-backend/pkg/database"
	"dinein-backend/pkg/logger"
)

// maxWriteAttempts bounds the optimistic retry loop on tab writes
const maxWriteAttempts = 3

type orderService struct {
	repo        repository.OrderRepository
	menu        MenuCatalog
	seating     Seating
	txm         database.TransactionManager
	gracePeriod time.Duration
	now         func() time.Time
}

func NewOrderService(
	repo repository.OrderRepository,
	menu MenuCatalog,
	seating Seating,
	txm database.TransactionManager,
	gracePeriod time.Duration,
	now func() time.Time,
) OrderService {
	if now == nil {
		now = time.Now
	}
	return &orderService{
		repo:        repo,
		menu:        menu,
		seating:     seating,
		txm:         txm,
		gracePeriod: gracePeriod,
		now:         now,
	}
}

func isStaff(role string) bool {
	return role == usermodel.RoleStaff || role == usermodel.RoleAdmin
}

// SubmitItems places a batch on the tab owner's open tab, creating it
// when absent. Batches merge by (menu item, options) both internally
// and against existing lines; genuinely new lines share one fresh
// sequence mark for the whole batch.
func (s *orderService) SubmitItems(ctx context.Context, actorID uuid.UUID, actorRole string, req *model.SubmitItemsRequest) (*model.Order, error) {
	// Step 1: Validate input
	if err := req.Validate(); err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}

	// Step 2: Resolve tab owner. Staff may order on a diner's behalf.
	ownerID := actorID
	if req.UserID != nil && isStaff(actorRole) {
		ownerID = *req.UserID
	}

	// Step 3: Occupancy check, staff exempt
	table, err := s.seating.FindByID(ctx, req.TableID)
	if err != nil {
		return nil, err
	}
	if !isStaff(actorRole) && !table.IsOccupiedBy(ownerID) {
		return nil, model.ErrNotSeatedAtTable
	}

	// Step 4: Resolve and snapshot menu items. One unknown id rejects
	// the whole batch.
	batch, err := s.buildBatch(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	// Step 5: Optimistic write loop
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		order, err := s.repo.FindUnpaidByUserAndTable(ctx, ownerID, req.TableID)
		if err != nil && !errors.Is(err, model.ErrOrderNotFound) {
			return nil, err
		}

		if order == nil {
			order = &model.Order{
				UserID:      ownerID,
				TableID:     table.ID,
				TableNumber: table.TableNumber,
				Items:       cloneBatch(batch, 1),
			}
			order.Recompute()
			err := s.repo.CreateOrder(ctx, order)
			if errors.Is(err, repository.ErrDuplicateTab) {
				continue // another submission created the tab first
			}
			if err != nil {
				return nil, err
			}
			s.logSubmission(order, len(batch))
			return order, nil
		}

		merged, fresh := mergeBatch(order, batch)
		order.Recompute()

		ok, err := s.writeSubmission(ctx, order, merged, fresh)
		if err != nil {
			return nil, err
		}
		if ok {
			s.logSubmission(order, len(batch))
			return s.repo.FindUnpaidByUserAndTable(ctx, ownerID, req.TableID)
		}
	}
	return nil, model.ErrContention
}

// buildBatch resolves menu snapshots and merges duplicates within the
// submission itself.
func (s *orderService) buildBatch(ctx context.Context, items []model.SubmitItem) ([]*model.OrderItem, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.MenuItemID)
	}

	snapshots, err := s.menu.GetItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup menu items: %w", err)
	}

	var unknown []uuid.UUID
	seen := map[uuid.UUID]bool{}
	for _, item := range items {
		if _, ok := snapshots[item.MenuItemID]; !ok && !seen[item.MenuItemID] {
			unknown = append(unknown, item.MenuItemID)
			seen[item.MenuItemID] = true
		}
	}
	if len(unknown) > 0 {
		return nil, &model.UnknownMenuItemsError{IDs: unknown}
	}

	// Merge duplicates inside the batch
	byKey := map[model.MergeKey]*model.OrderItem{}
	var batch []*model.OrderItem
	for _, item := range items {
		key := model.MergeKey{MenuItemID: item.MenuItemID, Options: item.Options}
		if existing, ok := byKey[key]; ok {
			existing.Quantity += item.Quantity
			existing.QuantityPreparing += item.Quantity
			continue
		}
		snap := snapshots[item.MenuItemID]
		line := &model.OrderItem{
			MenuItemID:        snap.ID,
			Name:              snap.Name,
			Price:             snap.Price,
			ImageURL:          snap.ImageURL,
			Options:           item.Options,
			Quantity:          item.Quantity,
			QuantityPreparing: item.Quantity,
		}
		byKey[key] = line
		batch = append(batch, line)
	}
	return batch, nil
}

// mergeBatch folds the batch into the open tab. Matching lines absorb
// the quantity into their preparing bucket; the rest become new lines
// under the next sequence mark.
func mergeBatch(order *model.Order, batch []*model.OrderItem) (merged, fresh []*model.OrderItem) {
	existing := map[model.MergeKey]*model.OrderItem{}
	for _, line := range order.Items {
		existing[line.MergeKey()] = line
	}

	nextMark := order.MaxSequenceMark() + 1
	for _, b := range batch {
		if line, ok := existing[b.MergeKey()]; ok {
			line.Quantity += b.Quantity
			line.QuantityPreparing += b.Quantity
			merged = append(merged, line)
			continue
		}
		line := &model.OrderItem{
			MenuItemID:        b.MenuItemID,
			Name:              b.Name,
			Price:             b.Price,
			ImageURL:          b.ImageURL,
			Options:           b.Options,
			Quantity:          b.Quantity,
			QuantityPreparing: b.Quantity,
			SequenceMark:      nextMark,
		}
		order.Items = append(order.Items, line)
		fresh = append(fresh, line)
	}
	return merged, fresh
}

func cloneBatch(batch []*model.OrderItem, mark int) []*model.OrderItem {
	out := make([]*model.OrderItem, 0, len(batch))
	for _, b := range batch {
		line := *b
		line.SequenceMark = mark
		out = append(out, &line)
	}
	return out
}

// writeSubmission applies one merge attempt under the version gate
func (s *orderService) writeSubmission(ctx context.Context, order *model.Order, merged, fresh []*model.OrderItem) (bool, error) {
	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return false, err
	}
	defer s.txm.RollbackTx(ctx, tx)

	ok, err := s.repo.BumpVersion(ctx, tx, order.ID, order.Version, order.Amount)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil // lost the race, caller re-reads and retries
	}

	for _, line := range merged {
		if err := s.repo.UpdateItemQuantities(ctx, tx, line); err != nil {
			return false, err
		}
	}
	if len(fresh) > 0 {
		if err := s.repo.InsertItems(ctx, tx, order.ID, fresh); err != nil {
			return false, err
		}
	}

	if err := s.txm.CommitTx(ctx, tx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *orderService) logSubmission(order *model.Order, batchSize int) {
	logger.Info("items submitted", map[string]interface{}{
		"order_id":     order.ID.String(),
		"user_id":      order.UserID.String(),
		"table_number": order.TableNumber,
		"batch_size":   batchSize,
		"amount":       order.Amount.String(),
	})
}

// TransitionLine moves units between preparing and served on any
// unpaid tab at the table. Unserving is staff only.
func (s *orderService) TransitionLine(ctx context.Context, tableID, lineID uuid.UUID, actorRole string, req *model.TransitionLineRequest) (*model.OrderItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Target == model.StatusPreparing && !isStaff(actorRole) {
		return nil, model.ErrUnserveStaffOnly
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		order, err := s.repo.FindUnpaidContainingLine(ctx, tableID, lineID)
		if err != nil {
			return nil, err
		}
		line := findLine(order, lineID)
		if line == nil {
			return nil, model.ErrLineNotFound
		}

		switch req.Target {
		case model.StatusServed:
			if req.Quantity > line.QuantityPreparing {
				return nil, model.ErrQuantityExceedsAvailable
			}
			line.QuantityPreparing -= req.Quantity
			line.QuantityServed += req.Quantity
		case model.StatusPreparing:
			if req.Quantity > line.QuantityServed {
				return nil, model.ErrQuantityExceedsAvailable
			}
			line.QuantityServed -= req.Quantity
			line.QuantityPreparing += req.Quantity
		}

		ok, err := s.writeLineUpdate(ctx, order, line)
		if err != nil {
			return nil, err
		}
		if ok {
			return line, nil
		}
	}
	return nil, model.ErrContention
}

func (s *orderService) writeLineUpdate(ctx context.Context, order *model.Order, line *model.OrderItem) (bool, error) {
	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return false, err
	}
	defer s.txm.RollbackTx(ctx, tx)

	ok, err := s.repo.BumpVersion(ctx, tx, order.ID, order.Version, order.Amount)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := s.repo.UpdateItemQuantities(ctx, tx, line); err != nil {
		return false, err
	}
	if err := s.txm.CommitTx(ctx, tx); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveUnits takes units off a line. Diners may only pull their own
// still-preparing units within the grace window; staff may remove
// anything, served units included.
func (s *orderService) RemoveUnits(ctx context.Context, actorID uuid.UUID, actorRole string, tableID, lineID uuid.UUID, req *model.RemoveUnitsRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	staff := isStaff(actorRole)

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		order, err := s.repo.FindUnpaidContainingLine(ctx, tableID, lineID)
		if err != nil {
			return err
		}
		line := findLine(order, lineID)
		if line == nil {
			return model.ErrLineNotFound
		}

		if !staff {
			if order.UserID != actorID {
				return model.ErrLineNotFound
			}
			if s.now().Sub(line.CreatedAt) > s.gracePeriod {
				return model.ErrDeletionWindowExpired
			}
			if req.Quantity > line.Quantity {
				return model.ErrQuantityExceedsAvailable
			}
			if req.Quantity > line.QuantityPreparing {
				return model.ErrItemAlreadyServed
			}
			line.QuantityPreparing -= req.Quantity
			line.Quantity -= req.Quantity
		} else {
			if req.Quantity > line.Quantity {
				return model.ErrQuantityExceedsAvailable
			}
			// Pull from the preparing bucket first
			fromPreparing := min(req.Quantity, line.QuantityPreparing)
			line.QuantityPreparing -= fromPreparing
			line.QuantityServed -= req.Quantity - fromPreparing
			line.Quantity -= req.Quantity
		}

		order.Recompute()

		ok, err := s.writeRemoval(ctx, order, line)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return model.ErrContention
}

func (s *orderService) writeRemoval(ctx context.Context, order *model.Order, line *model.OrderItem) (bool, error) {
	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return false, err
	}
	defer s.txm.RollbackTx(ctx, tx)

	// An emptied tab disappears entirely
	if order.Amount.IsZero() && tabEmptyWithout(order, line) && line.Quantity == 0 {
		if err := s.repo.DeleteOrder(ctx, tx, order.ID); err != nil {
			return false, err
		}
		if err := s.txm.CommitTx(ctx, tx); err != nil {
			return false, err
		}
		return true, nil
	}

	ok, err := s.repo.BumpVersion(ctx, tx, order.ID, order.Version, order.Amount)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if line.Quantity == 0 {
		if err := s.repo.DeleteItem(ctx, tx, line.ID); err != nil {
			return false, err
		}
	} else {
		if err := s.repo.UpdateItemQuantities(ctx, tx, line); err != nil {
			return false, err
		}
	}

	if err := s.txm.CommitTx(ctx, tx); err != nil {
		return false, err
	}
	return true, nil
}

// tabEmptyWithout reports whether the line is the last one carrying units
func tabEmptyWithout(order *model.Order, line *model.OrderItem) bool {
	for _, item := range order.Items {
		if item.ID != line.ID && item.Quantity > 0 {
			return false
		}
	}
	return true
}

func findLine(order *model.Order, lineID uuid.UUID) *model.OrderItem {
	for _, item := range order.Items {
		if item.ID == lineID {
			return item
		}
	}
	return nil
}

// GetTab returns one diner's tab grouped by submission round
func (s *orderService) GetTab(ctx context.Context, userID, tableID uuid.UUID) (*model.TabView, error) {
	order, err := s.repo.FindUnpaidByUserAndTable(ctx, userID, tableID)
	if err != nil {
		return nil, err
	}

	byMark := map[int][]*model.OrderItem{}
	for _, item := range order.Items {
		byMark[item.SequenceMark] = append(byMark[item.SequenceMark], item)
	}

	marks := make([]int, 0, len(byMark))
	for mark := range byMark {
		marks = append(marks, mark)
	}
	sort.Ints(marks)

	view := &model.TabView{
		OrderID:     order.ID,
		TableID:     order.TableID,
		TableNumber: order.TableNumber,
		Amount:      order.Amount,
	}
	for _, mark := range marks {
		view.Rounds = append(view.Rounds, model.Round{
			SequenceMark: mark,
			Items:        byMark[mark],
		})
	}
	return view, nil
}

// GetTableView merges every unpaid tab at the table into shared lines
// with per-diner quantities.
func (s *orderService) GetTableView(ctx context.Context, tableID uuid.UUID) (*model.TableView, error) {
	orders, err := s.repo.FindUnpaidByTable(ctx, tableID)
	if err != nil {
		return nil, err
	}

	view := &model.TableView{TableID: tableID, Total: decimal.Zero}
	byKey := map[model.MergeKey]*model.MergedLine{}
	var keys []model.MergeKey

	for _, order := range orders {
		view.TableNumber = order.TableNumber
		view.Total = view.Total.Add(order.Amount)
		for _, item := range order.Items {
			key := item.MergeKey()
			line, ok := byKey[key]
			if !ok {
				line = &model.MergedLine{
					MenuItemID: item.MenuItemID,
					Name:       item.Name,
					Price:      item.Price,
					Options:    item.Options,
				}
				byKey[key] = line
				keys = append(keys, key)
			}
			line.Quantity += item.Quantity
			line.PerUser = append(line.PerUser, model.UserQuantity{
				UserID:   order.UserID,
				Quantity: item.Quantity,
			})
		}
	}

	for _, key := range keys {
		view.Lines = append(view.Lines, byKey[key])
	}
	return view, nil
}

func (s *orderService) ListKitchen(ctx context.Context, status string) ([]*model.KitchenLine, error) {
	if status != model.StatusPreparing && status != model.StatusServed {
		return nil, fmt.Errorf("unknown kitchen status %q", status)
	}
	return s.repo.ListKitchenLines(ctx, status)
}
