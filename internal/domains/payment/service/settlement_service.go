package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ordermodel "dinein-backend/internal/domains/order/model"
	"dinein-backend/internal/domains/payment/gateway/zalopay"
	"dinein-backend/internal/domains/payment/model"
	"dinein-backend/internal/domains/payment/repository"
	promomodel "dinein-backend/internal/domains/promotion/model"
	usermodel "dinein-backend/internal/domains/user/model"
	"dinein-backend/internal/infrastructure/push"
	"dinein-backend/pkg/database"
	"dinein-backend/pkg/logger"
)

type settlementService struct {
	payments   repository.PaymentRepository
	tabs       TabStore
	tables     TableStore
	promotions PromotionEngine
	gateway    Gateway
	txManager  database.TransactionManager
	dispatcher push.Dispatcher
}

func NewSettlementService(
	payments repository.PaymentRepository,
	tabs TabStore,
	tables TableStore,
	promotions PromotionEngine,
	gateway Gateway,
	txManager database.TransactionManager,
	dispatcher push.Dispatcher,
) PaymentService {
	return &settlementService{
		payments:   payments,
		tabs:       tabs,
		tables:     tables,
		promotions: promotions,
		gateway:    gateway,
		txManager:  txManager,
		dispatcher: dispatcher,
	}
}

func (s *settlementService) SettleCash(ctx context.Context, staffID uuid.UUID, req *model.SettleRequest) (*model.Payment, error) {
	// 1. Validate request
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. The staff member must hold the payment claim on the table
	table, err := s.tables.FindByID(ctx, req.TableID)
	if err != nil {
		return nil, err
	}
	if !table.IsClaimedBy(staffID) {
		return nil, model.ErrPaymentNotClaimed
	}

	// 3. Collect the tabs in scope and refuse unfinished ones
	orders, payerID, total, err := s.collectTabs(ctx, req.TableID, ordermodel.Scope{ByUser: req.UserID})
	if err != nil {
		return nil, err
	}

	// 4. Authorize the promotion against the pre-discount total
	promo, finalTotal, err := s.authorizePromo(ctx, req.PromoCode, total, payerID)
	if err != nil {
		return nil, err
	}

	payment := s.buildPayment(orders, payerID, total, finalTotal, promo, model.MethodCash, "CASH-"+uuid.New().String(), nil)

	// 5. One transaction settles every tab, records the payment and
	// releases the table claim. Any failure leaves nothing charged.
	if err := s.commitSettlement(ctx, payment, orders, promo, &req.TableID); err != nil {
		return nil, err
	}

	s.notifySettled(orders, payment)
	return payment, nil
}

func (s *settlementService) InitiateGatewaySettlement(ctx context.Context, userID uuid.UUID, req *model.SettleRequest) (*model.InitiateResponse, error) {
	// 1. Validate request. No userID means the initiator pays for the
	// whole table; a userID narrows the scope to that diner's tab.
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// 2. Same totals and served-check as a cash settlement
	orders, payerID, total, err := s.collectTabs(ctx, req.TableID, ordermodel.Scope{ByUser: req.UserID})
	if err != nil {
		return nil, err
	}
	if req.UserID == nil {
		payerID = userID
	}
	_, finalTotal, err := s.authorizePromo(ctx, req.PromoCode, total, payerID)
	if err != nil {
		return nil, err
	}

	// 3. Round-trip everything the callback needs through embed_data.
	// No local state is written until the gateway confirms.
	embed := zalopay.EmbedData{
		OrderIDs:      orderIDs(orders),
		PayerID:       payerID,
		PromoCode:     req.PromoCode,
		NotifyUserIDs: ownerIDs(orders),
	}
	embedJSON, err := json.Marshal(embed)
	if err != nil {
		return nil, fmt.Errorf("encode embed data: %w", err)
	}
	itemJSON, err := json.Marshal(itemSummary(orders))
	if err != nil {
		return nil, fmt.Errorf("encode item summary: %w", err)
	}

	// 4. Create the gateway order
	appTransID := s.gateway.NewAppTransID()
	description := fmt.Sprintf("Table %d settlement", orders[0].TableNumber)
	resp, err := s.gateway.CreateOrder(ctx, appTransID, payerID.String(), finalTotal.Round(0).IntPart(), string(itemJSON), string(embedJSON), description)
	if err != nil {
		return nil, err
	}
	if resp.ReturnCode != 1 {
		logger.Warn("gateway refused create order", map[string]interface{}{
			"app_trans_id":   appTransID,
			"return_code":    resp.ReturnCode,
			"return_message": resp.ReturnMessage,
		})
		return nil, model.ErrGatewayRejected
	}

	return &model.InitiateResponse{
		OrderURL:         resp.OrderURL,
		ZpTransToken:     resp.ZpTransToken,
		AppTransactionID: appTransID,
	}, nil
}

func (s *settlementService) HandleGatewayCallback(ctx context.Context, payload *zalopay.CallbackPayload) *zalopay.CallbackResponse {
	// 1. Verify the mac before trusting a single byte of data.
	// A bad mac is rejected for good; the gateway must not retry it.
	if !zalopay.VerifyCallbackMac(payload, s.gateway.Key2()) {
		logger.Warn("callback mac mismatch", map[string]interface{}{})
		return &zalopay.CallbackResponse{ReturnCode: -1, ReturnMessage: "mac not equal"}
	}

	var data zalopay.CallbackData
	if err := json.Unmarshal([]byte(payload.Data), &data); err != nil {
		logger.Warn("callback data undecodable", map[string]interface{}{"error": err.Error()})
		return &zalopay.CallbackResponse{ReturnCode: -1, ReturnMessage: "malformed data"}
	}
	gatewayTxnID := strconv.FormatInt(data.ZpTransID, 10)

	// 2. Replays are acknowledged without touching anything
	exists, err := s.payments.ExistsGatewayTransaction(ctx, gatewayTxnID)
	if err != nil {
		return &zalopay.CallbackResponse{ReturnCode: 0, ReturnMessage: "temporary failure"}
	}
	if exists {
		return &zalopay.CallbackResponse{ReturnCode: 1, ReturnMessage: "already settled"}
	}

	var embed zalopay.EmbedData
	if err := json.Unmarshal([]byte(data.EmbedData), &embed); err != nil {
		logger.Warn("callback embed data undecodable", map[string]interface{}{"error": err.Error()})
		return &zalopay.CallbackResponse{ReturnCode: -1, ReturnMessage: "malformed embed data"}
	}

	// 3. Re-read the tabs; ones already settled in the meantime are
	// skipped rather than failed, the money has been taken either way
	orders, err := s.tabs.FindByIDs(ctx, embed.OrderIDs)
	if err != nil {
		return &zalopay.CallbackResponse{ReturnCode: 0, ReturnMessage: "temporary failure"}
	}
	unpaid := make([]*ordermodel.Order, 0, len(orders))
	for _, o := range orders {
		if o.PaymentStatus == ordermodel.PaymentStatusUnpaid {
			unpaid = append(unpaid, o)
		}
	}
	if len(unpaid) == 0 {
		return &zalopay.CallbackResponse{ReturnCode: 1, ReturnMessage: "already settled"}
	}

	// 4. Re-authorize the promotion for bookkeeping. The charge is
	// already captured, so a promotion that lapsed since initiation
	// only loses its usage record, it never blocks the settlement.
	total := decimal.Zero
	for _, o := range unpaid {
		total = total.Add(o.Amount)
	}
	promo, _, err := s.authorizePromo(ctx, embed.PromoCode, total, embed.PayerID)
	if err != nil {
		logger.Warn("promotion lapsed between initiation and callback", map[string]interface{}{
			"promo_code": embed.PromoCode,
			"error":      err.Error(),
		})
		promo = nil
	}

	// The captured amount is authoritative for the payment record
	finalTotal := decimal.NewFromInt(data.Amount)

	payment := s.buildPayment(unpaid, embed.PayerID, total, finalTotal, promo, model.MethodZaloPay, data.AppTransID, &gatewayTxnID)

	if err := s.commitSettlement(ctx, payment, unpaid, promo, nil); err != nil {
		if errors.Is(err, model.ErrDuplicateSettlement) {
			return &zalopay.CallbackResponse{ReturnCode: 1, ReturnMessage: "already settled"}
		}
		logger.Error("callback settlement failed for "+data.AppTransID, err)
		return &zalopay.CallbackResponse{ReturnCode: 0, ReturnMessage: "temporary failure"}
	}

	s.notifyUsers(embed.NotifyUserIDs, payment)
	return &zalopay.CallbackResponse{ReturnCode: 1, ReturnMessage: "success"}
}

func (s *settlementService) History(ctx context.Context, callerID uuid.UUID, role string, byUser *uuid.UUID) ([]*model.Payment, error) {
	if role == usermodel.RoleStaff || role == usermodel.RoleAdmin {
		if byUser != nil {
			return s.payments.ListByUser(ctx, *byUser)
		}
		return s.payments.ListAll(ctx)
	}
	// Diners only ever see their own settlements
	return s.payments.ListByUser(ctx, callerID)
}

// collectTabs loads the unpaid tabs in scope, refuses empty scopes and
// unfinished items, and returns the payer plus the pre-discount total.
func (s *settlementService) collectTabs(ctx context.Context, tableID uuid.UUID, scope ordermodel.Scope) ([]*ordermodel.Order, uuid.UUID, decimal.Decimal, error) {
	orders, err := s.tabs.FindUnpaidScoped(ctx, tableID, scope)
	if err != nil {
		return nil, uuid.Nil, decimal.Zero, err
	}
	if len(orders) == 0 {
		return nil, uuid.Nil, decimal.Zero, model.ErrNothingToSettle
	}

	var pending []string
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.Amount)
		for _, item := range o.Items {
			if item.QuantityPreparing > 0 {
				pending = append(pending, item.Name)
			}
		}
	}
	if len(pending) > 0 {
		return nil, uuid.Nil, decimal.Zero, &model.IncompleteItemsError{Items: pending}
	}

	payerID := orders[0].UserID
	if scope.ByUser != nil {
		payerID = *scope.ByUser
	}
	return orders, payerID, total, nil
}

func (s *settlementService) authorizePromo(ctx context.Context, code string, total decimal.Decimal, payerID uuid.UUID) (*promomodel.Promotion, decimal.Decimal, error) {
	if code == "" {
		return nil, total, nil
	}
	return s.promotions.Authorize(ctx, code, total, payerID)
}

func (s *settlementService) buildPayment(orders []*ordermodel.Order, payerID uuid.UUID, total, finalTotal decimal.Decimal, promo *promomodel.Promotion, method, appTransID string, gatewayTxnID *string) *model.Payment {
	payment := &model.Payment{
		ID:                   uuid.New(),
		OrderIDs:             orderIDs(orders),
		UserID:               payerID,
		Amount:               finalTotal,
		Method:               method,
		AppTransactionID:     appTransID,
		GatewayTransactionID: gatewayTxnID,
	}
	if promo != nil {
		code := promo.Code
		discount := total.Sub(finalTotal)
		payment.VoucherCode = &code
		payment.AmountDiscount = &discount
	}
	return payment
}

// commitSettlement marks every tab paid, records the payment, commits
// the promotion usage and releases the table claim in one transaction.
func (s *settlementService) commitSettlement(ctx context.Context, payment *model.Payment, orders []*ordermodel.Order, promo *promomodel.Promotion, releaseTableID *uuid.UUID) error {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrSettlementFailed, err)
	}
	defer s.txManager.RollbackTx(ctx, tx)

	for _, o := range orders {
		ok, err := s.tabs.MarkPaid(ctx, tx, o.ID, o.Version)
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrSettlementFailed, err)
		}
		if !ok {
			return model.ErrTabsChanged
		}
	}

	if err := s.payments.Insert(ctx, tx, payment); err != nil {
		if errors.Is(err, model.ErrDuplicateSettlement) {
			return err
		}
		return fmt.Errorf("%w: %v", model.ErrSettlementFailed, err)
	}

	if promo != nil {
		if err := s.promotions.CommitUsage(ctx, tx, promo, payment.UserID, payment.ID, 1); err != nil {
			return fmt.Errorf("%w: %v", model.ErrSettlementFailed, err)
		}
	}

	if releaseTableID != nil {
		if err := s.tables.ReleasePaymentClaimTx(ctx, tx, *releaseTableID); err != nil {
			return fmt.Errorf("%w: %v", model.ErrSettlementFailed, err)
		}
	}

	if err := s.txManager.CommitTx(ctx, tx); err != nil {
		return fmt.Errorf("%w: %v", model.ErrSettlementFailed, err)
	}

	logger.Info("settlement committed", map[string]interface{}{
		"payment_id": payment.ID.String(),
		"method":     payment.Method,
		"amount":     payment.Amount.String(),
		"tabs":       len(orders),
	})
	return nil
}

func (s *settlementService) notifySettled(orders []*ordermodel.Order, payment *model.Payment) {
	s.notifyUsers(ownerIDs(orders), payment)
}

func (s *settlementService) notifyUsers(userIDs []uuid.UUID, payment *model.Payment) {
	if len(userIDs) == 0 {
		return
	}
	go func() {
		err := s.dispatcher.Notify(context.Background(), userIDs, "Payment complete",
			fmt.Sprintf("Your bill of %s has been settled.", payment.Amount.StringFixed(0)),
			map[string]string{"payment_id": payment.ID.String()})
		if err != nil {
			logger.Warn("settlement notification failed", map[string]interface{}{
				"payment_id": payment.ID.String(),
				"error":      err.Error(),
			})
		}
	}()
}

func orderIDs(orders []*ordermodel.Order) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return ids
}

func ownerIDs(orders []*ordermodel.Order) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.UserID]; ok {
			continue
		}
		seen[o.UserID] = struct{}{}
		ids = append(ids, o.UserID)
	}
	return ids
}

// billedLine is one row of the item blob shown on the gateway page
type billedLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

func itemSummary(orders []*ordermodel.Order) []billedLine {
	index := make(map[string]int)
	var lines []billedLine
	for _, o := range orders {
		for _, item := range o.Items {
			if at, ok := index[item.Name]; ok {
				lines[at].Quantity += item.Quantity
				continue
			}
			index[item.Name] = len(lines)
			lines = append(lines, billedLine{Name: item.Name, Quantity: item.Quantity})
		}
	}
	return lines
}
