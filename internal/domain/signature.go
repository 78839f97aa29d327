package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// HMACValidator implements SignatureValidator using base64 HMAC-SHA256
type HMACValidator struct {
	secret string
}

// NewHMACValidator creates a new HMAC signature validator
func NewHMACValidator(secret string) *HMACValidator {
	return &HMACValidator{secret: secret}
}

// Validate checks if the payload signature is valid
func (v *HMACValidator) Validate(payload []byte, signature string) error {
	if !VerifySignature(payload, v.secret, signature) {
		return ErrInvalidSignature
	}
	return nil
}

// VerifySignature reports whether digest is the base64 HMAC-SHA256 of body under secret.
// The MAC bytes are compared with crypto/subtle so timing does not depend on where they differ.
func VerifySignature(body []byte, secret, digest string) bool {
	if secret == "" || digest == "" {
		return false
	}

	actual, err := base64.StdEncoding.DecodeString(digest)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(computeMAC(body, secret), actual) == 1
}

// ComputeSignature returns the base64 HMAC-SHA256 of body, as the store sends it
func ComputeSignature(body []byte, secret string) string {
	return base64.StdEncoding.EncodeToString(computeMAC(body, secret))
}

func computeMAC(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}
