// Package signature verifies payment provider callback signatures.
//
// A provider signs the pair (order id, payment id) with HMAC-SHA256 using the
// merchant's key secret and sends the MAC as lowercase hex.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrMalformedSignature is returned when a signature is not valid hex.
var ErrMalformedSignature = errors.New("malformed signature")

// Sign returns the lowercase hex HMAC-SHA256 of orderID|paymentID.
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the provider MAC for orderID|paymentID.
// A mismatch is (false, nil); undecodable hex is (false, ErrMalformedSignature).
func Verify(orderID, paymentID, signature, secret string) (bool, error) {
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false, ErrMalformedSignature
	}

	want, err := hex.DecodeString(Sign(orderID, paymentID, secret))
	if err != nil {
		return false, err
	}

	return hmac.Equal(got, want), nil
}
