// Package credentials generates the random values a voucher is made of:
// a short human-typable hotspot username and password, and the high-entropy
// URL-safe token used as the redemption key.
//
// Everything comes from crypto/rand. The token guards network access on its
// own, so a predictable source here would be an access-control bypass.
package credentials

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

// alphabet is lowercase-alphanumeric: easy to read out loud and to type on a
// phone keyboard at a captive-portal login form.
const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// usernamePrefix distinguishes generated hotspot accounts from anything an
// operator created by hand on the device.
const usernamePrefix = "u"

// tokenBytes is the entropy of the redemption token: 16 bytes = 128 bits.
const tokenBytes = 16

// Generator produces voucher credentials. It is stateless; lengths are fixed
// at construction time.
type Generator struct {
	usernameLength int
	passwordLength int
}

// NewGenerator returns a Generator producing usernames of
// usernamePrefix+usernameLength characters and passwords of passwordLength
// characters.
func NewGenerator(usernameLength, passwordLength int) *Generator {
	return &Generator{usernameLength: usernameLength, passwordLength: passwordLength}
}

// Username returns a new random hotspot username.
func (g *Generator) Username() (string, error) {
	s, err := randString(g.usernameLength)
	if err != nil {
		return "", err
	}
	return usernamePrefix + s, nil
}

// Password returns a new random hotspot password.
func (g *Generator) Password() (string, error) {
	return randString(g.passwordLength)
}

// Token returns a new URL-safe redemption token with tokenBytes of entropy,
// encoded with unpadded base64url.
func (g *Generator) Token() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rng error: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// randString draws n characters uniformly from alphabet. Each character is an
// independent draw, so there is no modulo bias.
func randString(n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("rng error: %w", err)
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}
