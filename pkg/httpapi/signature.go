package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Signature headers carried by provider delivery callbacks. Signature
// format: hex(HMAC-SHA256(secret, timestamp + "." + payload)).
const (
	HeaderSignature = "X-Callback-Signature"
	HeaderTimestamp = "X-Callback-Timestamp"
)

// signPayload computes the callback signature for a payload at the given
// unix timestamp. Shared with tests and with provider simulators.
func signPayload(secret string, timestamp int64, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.%s", timestamp, payload)
	return hex.EncodeToString(h.Sum(nil))
}

// verifySignature checks a callback payload against its signature headers.
// Timestamp binding keeps replayed callbacks out; comparison is constant
// time.
func verifySignature(secret string, payload []byte, signature, timestamp string, maxAge time.Duration) error {
	if signature == "" || timestamp == "" {
		return ErrMissingSignature
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", ErrInvalidSignature)
	}
	if maxAge > 0 {
		age := time.Since(time.Unix(ts, 0))
		if age > maxAge || age < -maxAge {
			return ErrSignatureExpired
		}
	}

	expected := signPayload(secret, ts, payload)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// SignCallback produces the signature headers a provider simulator or test
// client should attach to a callback request.
func SignCallback(secret string, payload []byte) (signature, timestamp string) {
	ts := time.Now().Unix()
	return signPayload(secret, ts, payload), strconv.FormatInt(ts, 10)
}
