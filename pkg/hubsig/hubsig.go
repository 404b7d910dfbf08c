// Package hubsig implements the verification handshake and payload signature
// used by Meta webhooks (lead ads and the WhatsApp Cloud API).
package hubsig

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const (
	SignatureHeader = "X-Hub-Signature-256"
	signaturePrefix = "sha256="
)

// Challenge reports whether a GET subscription request carries the expected
// verify token. An empty expected token never matches.
func Challenge(mode, token, expected string) bool {
	return mode == "subscribe" && expected != "" && token == expected
}

// Verify checks a "sha256=<hex>" header against the HMAC of body
func Verify(secret, header string, body []byte) bool {
	if !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}
	return hmac.Equal(sig, Sign(secret, body))
}

func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// Header formats the signature the way Meta sends it
func Header(secret string, body []byte) string {
	return signaturePrefix + hex.EncodeToString(Sign(secret, body))
}
