package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dinein-backend/internal/domains/table/model"
	"dinein-backend/internal/domains/table/repository"
	usermodel "dinein-backend/internal/domains/user/model"
	"dinein-backend/pkg/cache"
	"dinein-backend/pkg/logger"
)

type tableService struct {
	repo        repository.TableRepository
	tabs        TabChecker
	cache       cache.Cache
	softCodeTTL time.Duration
}

func NewTableService(repo repository.TableRepository, tabs TabChecker, c cache.Cache, softCodeTTL time.Duration) TableService {
	return &tableService{
		repo:        repo,
		tabs:        tabs,
		cache:       c,
		softCodeTTL: softCodeTTL,
	}
}

func softCodeKey(tableID uuid.UUID) string {
	return "table:softcode:" + tableID.String()
}

// Admit seats the caller at a table. A hard code only admits the first
// party of an empty open table; a soft code admits latecomers to an
// already occupied one.
func (s *tableService) Admit(ctx context.Context, userID uuid.UUID, req *model.AdmitRequest) (*model.Table, error) {
	// Step 1: Validate input
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Load target table
	table, err := s.repo.FindByID(ctx, req.TableID)
	if err != nil {
		return nil, err
	}
	if table.LockState != model.LockStateOpen {
		return nil, model.ErrTableLocked
	}

	// Step 3: Re-entry to own table is a no-op success
	if table.IsOccupiedBy(userID) {
		return table, nil
	}

	// Step 4: A user sits at one table at a time
	current, err := s.repo.FindByOccupant(ctx, userID)
	if err != nil && !errors.Is(err, model.ErrNotSeated) {
		return nil, err
	}
	if current != nil && current.ID != table.ID {
		return nil, model.ErrAlreadySeatedElsewhere
	}

	// Step 5: Seat according to code type
	switch req.CodeType {
	case model.CodeTypeHard:
		if len(table.Occupants) > 0 {
			return nil, model.ErrTableOccupied
		}
		seated, err := s.repo.SeatFirstParty(ctx, table.ID, userID)
		if err != nil {
			return nil, err
		}
		if !seated {
			// Lost the race. Re-read to report the precise reason.
			fresh, err := s.repo.FindByID(ctx, table.ID)
			if err != nil {
				return nil, err
			}
			if fresh.LockState != model.LockStateOpen {
				return nil, model.ErrTableLocked
			}
			return nil, model.ErrTableOccupied
		}

	case model.CodeTypeSoft:
		if err := s.verifySoftCode(ctx, table.ID, req.SoftCode); err != nil {
			return nil, err
		}
		seated, err := s.repo.AddOccupant(ctx, table.ID, userID)
		if err != nil {
			return nil, err
		}
		if !seated {
			fresh, err := s.repo.FindByID(ctx, table.ID)
			if err != nil {
				return nil, err
			}
			if fresh.LockState != model.LockStateOpen {
				return nil, model.ErrTableLocked
			}
			// Concurrent admit of the same user already seated us
			if !fresh.IsOccupiedBy(userID) {
				return nil, fmt.Errorf("admit: occupant update did not apply")
			}
			return fresh, nil
		}
	}

	logger.Info("user admitted to table", map[string]interface{}{
		"user_id":      userID.String(),
		"table_id":     table.ID.String(),
		"table_number": table.TableNumber,
		"code_type":    req.CodeType,
	})
	return s.repo.FindByID(ctx, table.ID)
}

func (s *tableService) verifySoftCode(ctx context.Context, tableID uuid.UUID, code string) error {
	var stored string
	found, err := s.cache.Get(ctx, softCodeKey(tableID), &stored)
	if err != nil {
		return fmt.Errorf("load soft code: %w", err)
	}
	if !found || stored != code {
		return model.ErrInvalidSoftCode
	}
	return nil
}

// IssueSoftCode mints a session code for the caller's table. Staff may
// mint for any table; diners only for the table they sit at.
func (s *tableService) IssueSoftCode(ctx context.Context, userID, tableID uuid.UUID, role string) (*model.SoftCodeResponse, error) {
	table, err := s.repo.FindByID(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if role != usermodel.RoleStaff && role != usermodel.RoleAdmin && !table.IsOccupiedBy(userID) {
		return nil, model.ErrNotSeated
	}
	if len(table.Occupants) == 0 {
		return nil, model.ErrNotSeated
	}

	code, err := generateCode(16)
	if err != nil {
		return nil, fmt.Errorf("generate soft code: %w", err)
	}
	if err := s.cache.Set(ctx, softCodeKey(tableID), code, s.softCodeTTL); err != nil {
		return nil, fmt.Errorf("store soft code: %w", err)
	}

	return &model.SoftCodeResponse{
		Code:      code,
		ExpiresIn: int(s.softCodeTTL.Seconds()),
	}, nil
}

// Release stands the caller up from their table. Refused while they
// still owe an unpaid tab there.
func (s *tableService) Release(ctx context.Context, userID uuid.UUID) error {
	table, err := s.repo.FindByOccupant(ctx, userID)
	if err != nil {
		return err
	}

	owes, err := s.tabs.HasUnpaidTab(ctx, userID, table.ID)
	if err != nil {
		return fmt.Errorf("check unpaid tab: %w", err)
	}
	if owes {
		return model.ErrUnsettledTabExists
	}

	return s.repo.RemoveOccupant(ctx, table.ID, userID)
}

// SetLockState opens or locks a table. Locking clears everyone out and
// requires every tab at the table to be settled first.
func (s *tableService) SetLockState(ctx context.Context, tableID uuid.UUID, state string) (*model.Table, error) {
	table, err := s.repo.FindByID(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if table.LockState == state {
		return nil, model.ErrTableAlreadyInThatState
	}

	switch state {
	case model.LockStateLocked:
		unpaid, err := s.tabs.CountUnpaidTabs(ctx, tableID)
		if err != nil {
			return nil, fmt.Errorf("count unpaid tabs: %w", err)
		}
		if unpaid > 0 {
			return nil, model.ErrUnsettledTabsRemain
		}
		if err := s.repo.Lock(ctx, tableID); err != nil {
			return nil, err
		}
		// A locked table invalidates its session code
		if err := s.cache.Delete(ctx, softCodeKey(tableID)); err != nil {
			logger.Warn("failed to drop soft code", map[string]interface{}{
				"table_id": tableID.String(),
				"error":    err.Error(),
			})
		}

	case model.LockStateOpen:
		if err := s.repo.Open(ctx, tableID); err != nil {
			return nil, err
		}
	}

	return s.repo.FindByID(ctx, tableID)
}

// SetPaymentLockState claims or releases the settlement claim on a table
func (s *tableService) SetPaymentLockState(ctx context.Context, tableID, staffID uuid.UUID, state string) (*model.Table, error) {
	table, err := s.repo.FindByID(ctx, tableID)
	if err != nil {
		return nil, err
	}

	switch state {
	case model.LockStateLocked:
		// Re-claim by the holder is a no-op success
		if table.IsClaimedBy(staffID) {
			return table, nil
		}
		claimed, err := s.repo.ClaimPayment(ctx, tableID, staffID)
		if err != nil {
			return nil, err
		}
		if !claimed {
			return nil, model.ErrPaymentAlreadyClaimed
		}

	case model.LockStateOpen:
		if err := s.repo.ReleasePaymentClaim(ctx, tableID); err != nil {
			return nil, err
		}
	}

	return s.repo.FindByID(ctx, tableID)
}

func (s *tableService) CurrentTable(ctx context.Context, userID uuid.UUID) (*model.Table, error) {
	return s.repo.FindByOccupant(ctx, userID)
}

func (s *tableService) ListOccupants(ctx context.Context, tableID uuid.UUID) ([]uuid.UUID, error) {
	table, err := s.repo.FindByID(ctx, tableID)
	if err != nil {
		return nil, err
	}
	return table.Occupants, nil
}

func (s *tableService) ListTables(ctx context.Context) ([]*model.Table, error) {
	return s.repo.List(ctx)
}

// CreateTable adds a table. New tables start locked so staff open them
// explicitly once they are physically ready.
func (s *tableService) CreateTable(ctx context.Context, req *model.CreateTableRequest) (*model.Table, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	table := &model.Table{TableNumber: req.TableNumber}
	if err := s.repo.Create(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

func (s *tableService) UpdateTable(ctx context.Context, id uuid.UUID, req *model.UpdateTableRequest) (*model.Table, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateNumber(ctx, id, req.TableNumber); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// DeleteTable soft-deletes a table. Only locked tables may go, which
// guarantees no occupants and no unsettled tabs.
func (s *tableService) DeleteTable(ctx context.Context, id uuid.UUID) error {
	table, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if table.LockState != model.LockStateLocked {
		return model.ErrTableNotLocked
	}
	return s.repo.SoftDelete(ctx, id)
}

func generateCode(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
