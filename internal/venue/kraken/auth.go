package kraken

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/driftfeed/marketfeed/internal/errors"
	"github.com/driftfeed/marketfeed/internal/venue"
)

const tokenRequestPath = "/0/private/GetWebSocketsToken"

// restBaseURL is overridable in tests.
var restBaseURL = "https://api.kraken.com"

type tokenResponse struct {
	Error  []string `json:"error"`
	Result struct {
		Token string `json:"token"`
	} `json:"result"`
}

// fetchToken obtains a short-lived WebSocket token via an authenticated
// HTTPS POST, per the Venue K v2 private-channel auth flow.
func fetchToken(creds venue.Credentials) (string, error) {
	nonce := strconv.FormatInt(time.Now().UnixNano()/int64(time.Millisecond), 10)
	postData := url.Values{"nonce": {nonce}}.Encode()

	signature, err := sign(creds.APISecret, tokenRequestPath, nonce, postData)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, restBaseURL+tokenRequestPath, strings.NewReader(postData))
	if err != nil {
		return "", errors.Wrap(err, "kraken: building token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("API-Key", creds.APIKey)
	req.Header.Set("API-Sign", signature)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "kraken: requesting token")
	}
	defer resp.Body.Close()

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Wrap(err, "kraken: decoding token response")
	}
	if len(body.Error) > 0 {
		return "", errors.New("kraken: token request failed: " + strings.Join(body.Error, "; "))
	}
	return body.Result.Token, nil
}

// sign computes the Venue K REST signature: base64 of
// HMAC-SHA512(base64-decoded secret, requestPath ++ SHA256(nonce ++ postData)).
func sign(secretB64, requestPath, nonce, postData string) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(secretB64)
	if err != nil {
		return "", errors.Wrap(err, "kraken: invalid api secret")
	}

	sha := sha256.New()
	sha.Write([]byte(nonce + postData))
	digest := sha.Sum(nil)

	mac := hmac.New(sha512.New, secret)
	mac.Write([]byte(requestPath))
	mac.Write(digest)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
