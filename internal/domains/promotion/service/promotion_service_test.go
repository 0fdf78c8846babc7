package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinein-backend/internal/domains/promotion/model"
)

type fakePromotionRepo struct {
	byCode      map[string]*model.Promotion
	byID        map[uuid.UUID]*model.Promotion
	redemptions map[uuid.UUID]*model.Redemption // keyed by user
	userUsage   map[uuid.UUID]int               // keyed by user
	usages      []*model.Usage
	usedCountOK bool
}

func newFakePromotionRepo() *fakePromotionRepo {
	return &fakePromotionRepo{
		byCode:      make(map[string]*model.Promotion),
		byID:        make(map[uuid.UUID]*model.Promotion),
		redemptions: make(map[uuid.UUID]*model.Redemption),
		userUsage:   make(map[uuid.UUID]int),
		usedCountOK: true,
	}
}

func (f *fakePromotionRepo) add(p *model.Promotion) {
	f.byCode[p.Code] = p
	f.byID[p.ID] = p
}

func (f *fakePromotionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Promotion, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, model.ErrPromotionNotFound
	}
	return p, nil
}

func (f *fakePromotionRepo) FindByCode(_ context.Context, code string) (*model.Promotion, error) {
	p, ok := f.byCode[code]
	if !ok {
		return nil, model.ErrPromotionNotFound
	}
	return p, nil
}

func (f *fakePromotionRepo) List(_ context.Context, activeOnly bool) ([]*model.Promotion, error) {
	var out []*model.Promotion
	for _, p := range f.byID {
		if !activeOnly || p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePromotionRepo) Create(_ context.Context, p *model.Promotion) error {
	if _, exists := f.byCode[p.Code]; exists {
		return model.ErrCodeExists
	}
	p.ID = uuid.New()
	f.add(p)
	return nil
}

func (f *fakePromotionRepo) Update(_ context.Context, p *model.Promotion) error {
	current, ok := f.byID[p.ID]
	if !ok {
		return model.ErrPromotionNotFound
	}
	if current.Version != p.Version {
		return model.ErrVersionConflict
	}
	p.Version++
	f.add(p)
	return nil
}

func (f *fakePromotionRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	p, ok := f.byID[id]
	if !ok {
		return model.ErrPromotionNotFound
	}
	p.IsActive = active
	return nil
}

func (f *fakePromotionRepo) Delete(_ context.Context, id uuid.UUID) error {
	p, ok := f.byID[id]
	if !ok {
		return model.ErrPromotionNotFound
	}
	delete(f.byID, id)
	delete(f.byCode, p.Code)
	return nil
}

func (f *fakePromotionRepo) DeactivateExpired(_ context.Context) (int64, error) {
	return 0, nil
}

func (f *fakePromotionRepo) GetRedemption(_ context.Context, userID, _ uuid.UUID) (*model.Redemption, error) {
	return f.redemptions[userID], nil
}

func (f *fakePromotionRepo) IncrementRedemption(_ context.Context, _ pgx.Tx, userID, promotionID uuid.UUID) error {
	r := f.redemptions[userID]
	if r == nil {
		r = &model.Redemption{ID: uuid.New(), UserID: userID, PromotionID: promotionID}
		f.redemptions[userID] = r
	}
	r.UsageCount++
	return nil
}

func (f *fakePromotionRepo) DecrementRedemption(_ context.Context, _ pgx.Tx, userID, _ uuid.UUID, count int) (bool, error) {
	r := f.redemptions[userID]
	if r == nil || r.UsageCount < count {
		return false, nil
	}
	r.UsageCount -= count
	if r.UsageCount == 0 {
		delete(f.redemptions, userID)
	}
	return true, nil
}

func (f *fakePromotionRepo) IncrementUsedCount(_ context.Context, _ pgx.Tx, promotionID uuid.UUID, count, expectedVersion int) (bool, error) {
	p, ok := f.byID[promotionID]
	if !ok || !f.usedCountOK || p.Version != expectedVersion {
		return false, nil
	}
	p.UsedCount += count
	p.Version++
	return true, nil
}

func (f *fakePromotionRepo) InsertUsage(_ context.Context, _ pgx.Tx, usage *model.Usage) error {
	usage.ID = uuid.New()
	f.usages = append(f.usages, usage)
	f.userUsage[usage.UserID] += usage.UsageCount
	return nil
}

func (f *fakePromotionRepo) SumUserUsage(_ context.Context, userID, _ uuid.UUID) (int, error) {
	return f.userUsage[userID], nil
}

func (f *fakePromotionRepo) ListUserUsage(_ context.Context, userID uuid.UUID) ([]*model.Usage, error) {
	var out []*model.Usage
	for _, u := range f.usages {
		if u.UserID == userID {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeTxManager struct {
	commits int
}

func (f *fakeTxManager) BeginTx(context.Context) (pgx.Tx, error)  { return nil, nil }
func (f *fakeTxManager) CommitTx(context.Context, pgx.Tx) error   { f.commits++; return nil }
func (f *fakeTxManager) RollbackTx(context.Context, pgx.Tx) error { return nil }

var errInsufficientPoints = errors.New("insufficient points")

type fakePointsLedger struct {
	balances map[uuid.UUID]int
}

func (f *fakePointsLedger) DebitPoints(_ context.Context, _ pgx.Tx, userID uuid.UUID, points int) error {
	if f.balances[userID] < points {
		return errInsufficientPoints
	}
	f.balances[userID] -= points
	return nil
}

func intPtr(v int) *int { return &v }

func activePromo(code string, now time.Time) *model.Promotion {
	return &model.Promotion{
		ID:            uuid.New(),
		Code:          code,
		DiscountType:  model.DiscountTypeFixed,
		DiscountValue: dec(20000),
		StartsAt:      now.Add(-time.Hour),
		EndsAt:        now.Add(time.Hour),
		IsActive:      true,
		Version:       1,
	}
}

func newTestService(repo *fakePromotionRepo, now time.Time) (PromotionService, *fakePointsLedger, *fakeTxManager) {
	points := &fakePointsLedger{balances: make(map[uuid.UUID]int)}
	txm := &fakeTxManager{}
	svc := NewPromotionService(repo, points, txm, func() time.Time { return now })
	return svc, points, txm
}

func TestAuthorizeWindowAndCaps(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	tests := []struct {
		name    string
		mutate  func(p *model.Promotion, repo *fakePromotionRepo)
		total   decimal.Decimal
		wantErr error
	}{
		{
			name:   "valid voucher applies",
			mutate: func(*model.Promotion, *fakePromotionRepo) {},
			total:  dec(100000),
		},
		{
			name:    "inactive voucher rejected",
			mutate:  func(p *model.Promotion, _ *fakePromotionRepo) { p.IsActive = false },
			total:   dec(100000),
			wantErr: model.ErrPromotionInactive,
		},
		{
			name:    "voucher not started yet",
			mutate:  func(p *model.Promotion, _ *fakePromotionRepo) { p.StartsAt = now.Add(time.Minute) },
			total:   dec(100000),
			wantErr: model.ErrPromotionNotInUse,
		},
		{
			name:    "voucher past its end",
			mutate:  func(p *model.Promotion, _ *fakePromotionRepo) { p.EndsAt = now.Add(-time.Minute) },
			total:   dec(100000),
			wantErr: model.ErrPromotionExpired,
		},
		{
			name: "global cap reached",
			mutate: func(p *model.Promotion, _ *fakePromotionRepo) {
				p.MaxUsage = intPtr(5)
				p.UsedCount = 5
			},
			total:   dec(100000),
			wantErr: model.ErrPromotionExhausted,
		},
		{
			name: "per-user cap reached",
			mutate: func(p *model.Promotion, repo *fakePromotionRepo) {
				p.UsageLimitPerUser = intPtr(2)
				repo.userUsage[userID] = 2
			},
			total:   dec(100000),
			wantErr: model.ErrUserLimitExceeded,
		},
		{
			name: "point gated without redemption stock",
			mutate: func(p *model.Promotion, _ *fakePromotionRepo) {
				p.RequiredPoints = intPtr(100)
			},
			total:   dec(100000),
			wantErr: model.ErrNotRedeemed,
		},
		{
			name: "below minimum order value",
			mutate: func(p *model.Promotion, _ *fakePromotionRepo) {
				p.MinOrderValue = decPtr(150000)
			},
			total:   dec(100000),
			wantErr: model.ErrOrderBelowMinimum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakePromotionRepo()
			promo := activePromo("SAVE20", now)
			tt.mutate(promo, repo)
			repo.add(promo)
			svc, _, _ := newTestService(repo, now)

			got, finalTotal, err := svc.Authorize(context.Background(), "SAVE20", tt.total, userID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.True(t, dec(80000).Equal(finalTotal), "got %s", finalTotal)
		})
	}
}

func TestAuthorizeUnknownCode(t *testing.T) {
	now := time.Now()
	svc, _, _ := newTestService(newFakePromotionRepo(), now)

	_, _, err := svc.Authorize(context.Background(), "NOPE", dec(100000), uuid.New())
	assert.ErrorIs(t, err, model.ErrPromotionNotFound)
}

func TestRedeemDebitsPointsOnce(t *testing.T) {
	now := time.Now()
	repo := newFakePromotionRepo()
	promo := activePromo("VIP", now)
	promo.RequiredPoints = intPtr(500)
	repo.add(promo)

	svc, points, txm := newTestService(repo, now)
	userID := uuid.New()
	points.balances[userID] = 1200

	stock, err := svc.Redeem(context.Background(), userID, &model.RedeemRequest{Code: "VIP"})
	require.NoError(t, err)
	assert.Equal(t, 1, stock.UsageCount)
	assert.Equal(t, 700, points.balances[userID])
	assert.Equal(t, 1, txm.commits)

	// A second redemption stacks another charge
	stock, err = svc.Redeem(context.Background(), userID, &model.RedeemRequest{Code: "VIP"})
	require.NoError(t, err)
	assert.Equal(t, 2, stock.UsageCount)
	assert.Equal(t, 200, points.balances[userID])
}

func TestRedeemRequiresPointGate(t *testing.T) {
	now := time.Now()
	repo := newFakePromotionRepo()
	repo.add(activePromo("PLAIN", now))
	svc, _, _ := newTestService(repo, now)

	_, err := svc.Redeem(context.Background(), uuid.New(), &model.RedeemRequest{Code: "PLAIN"})
	assert.ErrorIs(t, err, model.ErrNotPointGated)
}

func TestRedeemInsufficientPoints(t *testing.T) {
	now := time.Now()
	repo := newFakePromotionRepo()
	promo := activePromo("VIP", now)
	promo.RequiredPoints = intPtr(500)
	repo.add(promo)

	svc, points, txm := newTestService(repo, now)
	userID := uuid.New()
	points.balances[userID] = 100

	_, err := svc.Redeem(context.Background(), userID, &model.RedeemRequest{Code: "VIP"})
	assert.Error(t, err)
	assert.Equal(t, 100, points.balances[userID])
	assert.Equal(t, 0, txm.commits)
	assert.Nil(t, repo.redemptions[userID])
}

func TestCommitUsageSpendsRedemptionStock(t *testing.T) {
	now := time.Now()
	repo := newFakePromotionRepo()
	promo := activePromo("VIP", now)
	promo.RequiredPoints = intPtr(500)
	repo.add(promo)
	svc, _, _ := newTestService(repo, now)

	userID := uuid.New()
	repo.redemptions[userID] = &model.Redemption{UserID: userID, PromotionID: promo.ID, UsageCount: 1}

	err := svc.CommitUsage(context.Background(), nil, promo, userID, uuid.New(), 1)
	require.NoError(t, err)
	assert.Nil(t, repo.redemptions[userID], "stock should be spent and pruned")
	assert.Equal(t, 1, promo.UsedCount)
	require.Len(t, repo.usages, 1)
	assert.Equal(t, 1, repo.usages[0].UsageCount)

	// Stock is gone, a second commit must fail
	err = svc.CommitUsage(context.Background(), nil, promo, userID, uuid.New(), 1)
	assert.ErrorIs(t, err, model.ErrNotRedeemed)
}

func TestCommitUsageVersionConflict(t *testing.T) {
	now := time.Now()
	repo := newFakePromotionRepo()
	promo := activePromo("SAVE20", now)
	repo.add(promo)
	svc, _, _ := newTestService(repo, now)

	stale := *promo
	stale.Version = promo.Version - 1

	err := svc.CommitUsage(context.Background(), nil, &stale, uuid.New(), uuid.New(), 1)
	assert.ErrorIs(t, err, model.ErrVersionConflict)
	assert.Empty(t, repo.usages)
}
