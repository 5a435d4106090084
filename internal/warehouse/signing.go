package warehouse

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Proxy request headers used for dashboard <-> proxy authentication.
const (
	HeaderProxyToken     = "X-Proxy-Token"
	HeaderProxyTimestamp = "X-Proxy-Timestamp"
	HeaderProxySignature = "X-Proxy-Signature"
)

// DefaultMaxSkew bounds how old a signed request may be.
const DefaultMaxSkew = 5 * time.Minute

// SignRequest adds token, timestamp and HMAC signature headers to req.
func SignRequest(req *http.Request, token string, body []byte, now time.Time) {
	ts := strconv.FormatInt(now.UTC().Unix(), 10)
	req.Header.Set(HeaderProxyToken, token)
	req.Header.Set(HeaderProxyTimestamp, ts)
	req.Header.Set(HeaderProxySignature, signature(req.Method, req.URL.Path, ts, body, token))
}

// VerifyRequest validates the token, timestamp freshness and signature.
func VerifyRequest(req *http.Request, token string, body []byte, now time.Time, maxSkew time.Duration) error {
	if !hmac.Equal([]byte(req.Header.Get(HeaderProxyToken)), []byte(token)) {
		return fmt.Errorf("invalid %s", HeaderProxyToken)
	}

	tsRaw := req.Header.Get(HeaderProxyTimestamp)
	if tsRaw == "" {
		return fmt.Errorf("missing %s", HeaderProxyTimestamp)
	}
	timestamp, err := strconv.ParseInt(tsRaw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", HeaderProxyTimestamp, err)
	}

	skew := now.UTC().Sub(time.Unix(timestamp, 0).UTC())
	if skew < 0 {
		skew = -skew
	}
	if skew > maxSkew {
		return fmt.Errorf("request timestamp outside allowed skew")
	}

	got := req.Header.Get(HeaderProxySignature)
	if got == "" {
		return fmt.Errorf("missing %s", HeaderProxySignature)
	}
	want := signature(req.Method, req.URL.Path, tsRaw, body, token)
	if !hmac.Equal([]byte(got), []byte(want)) {
		return fmt.Errorf("invalid request signature")
	}
	return nil
}

func signature(method, path, ts string, body []byte, token string) string {
	bodyDigest := sha256.Sum256(body)
	payload := method + "\n" + path + "\n" + ts + "\n" + hex.EncodeToString(bodyDigest[:])

	mac := hmac.New(sha256.New, []byte(token))
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
