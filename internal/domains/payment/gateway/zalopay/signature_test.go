package zalopay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRequestMac(t *testing.T) {
	req := &CreateOrderRequest{
		AppID:      "2553",
		AppTransID: "260314_000042",
		AppUser:    "diner-42",
		AppTime:    1765700000000,
		Amount:     420000,
		EmbedData:  "{}",
		Item:       "[]",
	}

	mac := BuildRequestMac(req, "key1secret")
	assert.Equal(t, "acad3b1ca4e6a8ea06a5a8e9c32c7b9f9fe8743816e039dab4cfc45e7617f4fd", mac)

	// A different key yields a different mac
	assert.NotEqual(t, mac, BuildRequestMac(req, "otherkey"))

	// The mac covers the amount
	req.Amount = 420001
	assert.NotEqual(t, mac, BuildRequestMac(req, "key1secret"))
}

func TestVerifyCallbackMac(t *testing.T) {
	payload := &CallbackPayload{
		Data: `{"app_id":2553,"amount":420000}`,
		Mac:  "222fc64d803ae53e54141bc8683e1055da24a9a2c7130d5fe8f4c77b810da496",
	}

	assert.True(t, VerifyCallbackMac(payload, "key2secret"))
	assert.False(t, VerifyCallbackMac(payload, "wrongkey"))

	tampered := &CallbackPayload{Data: `{"app_id":2553,"amount":1}`, Mac: payload.Mac}
	assert.False(t, VerifyCallbackMac(tampered, "key2secret"))

	forged := &CallbackPayload{Data: payload.Data, Mac: "deadbeef"}
	assert.False(t, VerifyCallbackMac(forged, "key2secret"))
}
