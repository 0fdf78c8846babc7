package zalopay

import "github.com/google/uuid"

// CreateOrderRequest is the form posted to the gateway's create API
type CreateOrderRequest struct {
	AppID       string `json:"app_id"`
	AppTransID  string `json:"app_trans_id"`
	AppUser     string `json:"app_user"`
	AppTime     int64  `json:"app_time"`
	Amount      int64  `json:"amount"`
	Item        string `json:"item"`
	Description string `json:"description"`
	EmbedData   string `json:"embed_data"`
	BankCode    string `json:"bank_code"`
	CallbackURL string `json:"callback_url"`
	Mac         string `json:"mac"`
}

// CreateOrderResponse is the gateway's answer to a create call
type CreateOrderResponse struct {
	ReturnCode       int    `json:"return_code"`
	ReturnMessage    string `json:"return_message"`
	SubReturnCode    int    `json:"sub_return_code"`
	SubReturnMessage string `json:"sub_return_message"`
	OrderURL         string `json:"order_url"`
	ZpTransToken     string `json:"zp_trans_token"`
}

// CallbackPayload is what the gateway posts to our callback URL.
// Data is an opaque JSON string; the mac covers it byte for byte.
type CallbackPayload struct {
	Data string `json:"data"`
	Mac  string `json:"mac"`
	Type int    `json:"type"`
}

// CallbackData is the decoded Data field of a verified callback
type CallbackData struct {
	AppID      int    `json:"app_id"`
	AppTransID string `json:"app_trans_id"`
	AppUser    string `json:"app_user"`
	AppTime    int64  `json:"app_time"`
	Amount     int64  `json:"amount"`
	EmbedData  string `json:"embed_data"`
	Item       string `json:"item"`
	ZpTransID  int64  `json:"zp_trans_id"`
	ServerTime int64  `json:"server_time"`
	Channel    int    `json:"channel"`
}

// EmbedData is our private payload round-tripped through the gateway.
// It carries everything the callback needs to finish settlement.
type EmbedData struct {
	OrderIDs      []uuid.UUID `json:"order_ids"`
	PayerID       uuid.UUID   `json:"payer_id"`
	PromoCode     string      `json:"promo_code,omitempty"`
	NotifyUserIDs []uuid.UUID `json:"notify_user_ids,omitempty"`
}

// CallbackResponse is what we answer the gateway with.
// 1 acknowledges success, -1 rejects a bad mac with no retry,
// 0 reports a transient error the gateway should retry.
type CallbackResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
}
