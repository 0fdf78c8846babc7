package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"dinein-backend/internal/domains/promotion/model"
	"dinein-backend/internal/domains/promotion/repository"
	"dinein-backend/pkg/database"
	"dinein-backend/pkg/logger"
)

type promotionService struct {
	repo   repository.PromotionRepository
	points PointsLedger
	txm    database.TransactionManager
	calc   *DiscountCalculator
	now    func() time.Time
}

func NewPromotionService(
	repo repository.PromotionRepository,
	points PointsLedger,
	txm database.TransactionManager,
	now func() time.Time,
) PromotionService {
	if now == nil {
		now = time.Now
	}
	return &promotionService{
		repo:   repo,
		points: points,
		txm:    txm,
		calc:   NewDiscountCalculator(),
		now:    now,
	}
}

// Evaluate maps Authorize failures onto advisory reasons so a client
// can show why a code does not apply without triggering error paths.
func (s *promotionService) Evaluate(ctx context.Context, userID uuid.UUID, req *model.EvaluateRequest) (*model.Evaluation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	promo, finalTotal, err := s.Authorize(ctx, req.Code, req.Total, userID)
	if err != nil {
		reason, known := authorizeReason(err)
		if !known {
			return nil, err
		}
		return &model.Evaluation{
			Applicable: false,
			FinalTotal: req.Total,
			Discount:   decimal.Zero,
			Reason:     reason,
		}, nil
	}

	return &model.Evaluation{
		Applicable: true,
		FinalTotal: finalTotal,
		Discount:   s.calc.Discount(promo, req.Total),
	}, nil
}

func authorizeReason(err error) (string, bool) {
	switch {
	case errors.Is(err, model.ErrPromotionNotFound), errors.Is(err, model.ErrPromotionInactive):
		return model.ReasonInvalidCode, true
	case errors.Is(err, model.ErrPromotionNotInUse):
		return model.ReasonNotStarted, true
	case errors.Is(err, model.ErrPromotionExpired):
		return model.ReasonExpired, true
	case errors.Is(err, model.ErrPromotionExhausted):
		return model.ReasonUsageCap, true
	case errors.Is(err, model.ErrUserLimitExceeded):
		return model.ReasonUserCap, true
	case errors.Is(err, model.ErrNotRedeemed):
		return model.ReasonNotRedeemed, true
	case errors.Is(err, model.ErrOrderBelowMinimum):
		return model.ReasonBelowMinimum, true
	}
	return "", false
}

// Authorize runs the full gauntlet of voucher rules against the
// injected clock. Expiry is a pure read-time decision; nothing in the
// database flips rows as time passes.
func (s *promotionService) Authorize(ctx context.Context, code string, total decimal.Decimal, userID uuid.UUID) (*model.Promotion, decimal.Decimal, error) {
	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, total, err
	}
	if !promo.IsActive {
		return nil, total, model.ErrPromotionInactive
	}

	now := s.now()
	if now.Before(promo.StartsAt) {
		return nil, total, model.ErrPromotionNotInUse
	}
	if now.After(promo.EndsAt) {
		return nil, total, model.ErrPromotionExpired
	}
	if promo.IsExhausted() {
		return nil, total, model.ErrPromotionExhausted
	}

	if promo.UsageLimitPerUser != nil {
		used, err := s.repo.SumUserUsage(ctx, userID, promo.ID)
		if err != nil {
			return nil, total, err
		}
		if used >= *promo.UsageLimitPerUser {
			return nil, total, model.ErrUserLimitExceeded
		}
	}

	if promo.IsPointGated() {
		stock, err := s.repo.GetRedemption(ctx, userID, promo.ID)
		if err != nil {
			return nil, total, err
		}
		if stock == nil || stock.UsageCount < 1 {
			return nil, total, model.ErrNotRedeemed
		}
	}

	if promo.MinOrderValue != nil && total.LessThan(*promo.MinOrderValue) {
		return nil, total, model.ErrOrderBelowMinimum
	}

	return promo, s.calc.FinalTotal(promo, total), nil
}

// Redeem spends loyalty points for one usage charge of a point-gated
// voucher. Debit and stock increment commit together.
func (s *promotionService) Redeem(ctx context.Context, userID uuid.UUID, req *model.RedeemRequest) (*model.Redemption, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	promo, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if !promo.IsPointGated() {
		return nil, model.ErrNotPointGated
	}
	if !promo.IsActive {
		return nil, model.ErrPromotionInactive
	}
	now := s.now()
	if now.Before(promo.StartsAt) {
		return nil, model.ErrPromotionNotInUse
	}
	if now.After(promo.EndsAt) {
		return nil, model.ErrPromotionExpired
	}

	tx, err := s.txm.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer s.txm.RollbackTx(ctx, tx)

	if err := s.points.DebitPoints(ctx, tx, userID, *promo.RequiredPoints); err != nil {
		return nil, err
	}
	if err := s.repo.IncrementRedemption(ctx, tx, userID, promo.ID); err != nil {
		return nil, err
	}
	if err := s.txm.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("promotion redeemed", map[string]interface{}{
		"user_id":      userID.String(),
		"promotion_id": promo.ID.String(),
		"points":       *promo.RequiredPoints,
	})
	return s.repo.GetRedemption(ctx, userID, promo.ID)
}

// CommitUsage is the settlement-side half of the engine. The caller
// owns the transaction; any failure here aborts the whole settlement.
func (s *promotionService) CommitUsage(ctx context.Context, tx pgx.Tx, promo *model.Promotion, userID, paymentID uuid.UUID, usageCount int) error {
	ok, err := s.repo.IncrementUsedCount(ctx, tx, promo.ID, usageCount, promo.Version)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrVersionConflict
	}

	if promo.IsPointGated() {
		spent, err := s.repo.DecrementRedemption(ctx, tx, userID, promo.ID, usageCount)
		if err != nil {
			return err
		}
		if !spent {
			return model.ErrNotRedeemed
		}
	}

	return s.repo.InsertUsage(ctx, tx, &model.Usage{
		PromotionID:      promo.ID,
		UserID:           userID,
		PaymentID:        paymentID,
		UsageCount:       usageCount,
		PromotionVersion: promo.Version,
	})
}

// CreatePromotion defines a voucher, generating code and description
// when the admin leaves them blank.
func (s *promotionService) CreatePromotion(ctx context.Context, req *model.CreatePromotionRequest) (*model.Promotion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	code := req.Code
	if code == "" {
		code = generateVoucherCode()
	}
	description := req.Description
	if description == "" {
		description = autoDescription(req)
	}

	promo := &model.Promotion{
		Code:              code,
		Description:       description,
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		MaxDiscount:       req.MaxDiscount,
		MinOrderValue:     req.MinOrderValue,
		MaxUsage:          req.MaxUsage,
		UsageLimitPerUser: req.UsageLimitPerUser,
		RequiredPoints:    req.RequiredPoints,
		StartsAt:          req.StartsAt,
		EndsAt:            req.EndsAt,
		IsActive:          true,
	}
	if err := s.repo.Create(ctx, promo); err != nil {
		return nil, err
	}
	return promo, nil
}

func (s *promotionService) UpdatePromotion(ctx context.Context, id uuid.UUID, req *model.UpdatePromotionRequest) (*model.Promotion, error) {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		promo.Description = *req.Description
	}
	if req.MaxUsage != nil {
		promo.MaxUsage = req.MaxUsage
	}
	if req.UsageLimitPerUser != nil {
		promo.UsageLimitPerUser = req.UsageLimitPerUser
	}
	if req.StartsAt != nil {
		promo.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		promo.EndsAt = *req.EndsAt
	}
	if req.MaxDiscount != nil {
		promo.MaxDiscount = req.MaxDiscount
	}
	if req.MinOrderValue != nil {
		promo.MinOrderValue = req.MinOrderValue
	}
	if !promo.EndsAt.After(promo.StartsAt) {
		return nil, fmt.Errorf("%w: ends_at must be after starts_at", model.ErrInvalidDiscount)
	}

	if err := s.repo.Update(ctx, promo); err != nil {
		return nil, err
	}
	return promo, nil
}

// SetActive toggles a voucher. Reactivating an expired or exhausted
// voucher is refused; fix the definition instead.
func (s *promotionService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.Promotion, error) {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if active {
		if s.now().After(promo.EndsAt) {
			return nil, model.ErrPromotionExpired
		}
		if promo.IsExhausted() {
			return nil, model.ErrPromotionExhausted
		}
	}

	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// DeletePromotion removes a voucher that was never used. Used vouchers
// stay for the audit trail; deactivate them instead.
func (s *promotionService) DeletePromotion(ctx context.Context, id uuid.UUID) error {
	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if promo.UsedCount > 0 {
		return model.ErrPromotionUsed
	}
	return s.repo.Delete(ctx, id)
}

func (s *promotionService) ListPromotions(ctx context.Context, activeOnly bool) ([]*model.Promotion, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *promotionService) UserUsageReport(ctx context.Context, userID uuid.UUID) ([]*model.Usage, error) {
	return s.repo.ListUserUsage(ctx, userID)
}

func generateVoucherCode() string {
	return "PROMO-" + uuid.NewString()[:8]
}

func autoDescription(req *model.CreatePromotionRequest) string {
	switch req.DiscountType {
	case model.DiscountTypeFixed:
		return fmt.Sprintf("%s off your bill", req.DiscountValue.String())
	case model.DiscountTypePercentage:
		return fmt.Sprintf("%s%% off your bill", req.DiscountValue.String())
	case model.DiscountTypeMaxPercentage:
		return fmt.Sprintf("%s%% off, up to %s", req.DiscountValue.String(), req.MaxDiscount.String())
	}
	return ""
}
