package coinbase

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"github.com/driftfeed/marketfeed/internal/errors"
)

// sign computes the Venue C REST-style prehash signature: base64 of
// HMAC-SHA256 over timestamp+method+requestPath, keyed by the
// base64-decoded API secret.
func sign(secretB64, timestamp, method, requestPath string) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(secretB64)
	if err != nil {
		return "", errors.Wrap(err, "coinbase: invalid api secret")
	}
	prehash := timestamp + method + requestPath
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(prehash))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
