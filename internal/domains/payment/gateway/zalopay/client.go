package zalopay

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dinein-backend/internal/config"
	"dinein-backend/pkg/logger"
)

// Client talks to the ZaloPay create-order API
type Client struct {
	cfg        config.ZaloPayConfig
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(cfg config.ZaloPayConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second, // bound the gateway call
		},
		now: time.Now,
	}
}

// Key2 exposes the callback verification key
func (c *Client) Key2() string {
	return c.cfg.Key2
}

// NewAppTransID mints a gateway transaction id. The gateway requires
// the yymmdd prefix to match its settlement day.
func (c *Client) NewAppTransID() string {
	return fmt.Sprintf("%s_%06d", c.now().Format("060102"), rand.Intn(1000000))
}

// CreateOrder signs and posts a create-order request, returning the
// redirect payload for the client app.
func (c *Client) CreateOrder(ctx context.Context, appTransID, appUser string, amount int64, item, embedData, description string) (*CreateOrderResponse, error) {
	req := &CreateOrderRequest{
		AppID:       c.cfg.AppID,
		AppTransID:  appTransID,
		AppUser:     appUser,
		AppTime:     c.now().UnixMilli(),
		Amount:      amount,
		Item:        item,
		Description: description,
		EmbedData:   embedData,
		CallbackURL: c.cfg.CallbackURL,
	}
	req.Mac = BuildRequestMac(req, c.cfg.Key1)

	form := url.Values{}
	form.Set("app_id", req.AppID)
	form.Set("app_trans_id", req.AppTransID)
	form.Set("app_user", req.AppUser)
	form.Set("app_time", strconv.FormatInt(req.AppTime, 10))
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("item", req.Item)
	form.Set("description", req.Description)
	form.Set("embed_data", req.EmbedData)
	form.Set("bank_code", req.BankCode)
	form.Set("callback_url", req.CallbackURL)
	form.Set("mac", req.Mac)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	var result CreateOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}

	logger.Info("gateway order created", map[string]interface{}{
		"app_trans_id": appTransID,
		"amount":       amount,
		"return_code":  result.ReturnCode,
	})
	return &result, nil
}
