package zalopay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// BuildRequestMac signs an outbound create-order request with key1.
// The gateway specifies the exact field order:
//
//	app_id|app_trans_id|app_user|amount|app_time|embed_data|item
func BuildRequestMac(req *CreateOrderRequest, key1 string) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d|%s|%s",
		req.AppID,
		req.AppTransID,
		req.AppUser,
		req.Amount,
		req.AppTime,
		req.EmbedData,
		req.Item,
	)
	return hmacSHA256(data, key1)
}

// VerifyCallbackMac checks a callback's mac with key2 before any field
// of the payload is trusted. Constant-time comparison.
func VerifyCallbackMac(payload *CallbackPayload, key2 string) bool {
	expected := hmacSHA256(payload.Data, key2)
	return hmac.Equal([]byte(expected), []byte(payload.Mac))
}

func hmacSHA256(data, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
