package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const otpDigits = "0123456789"

// GenerateOTPCode produces a random numeric one-time code of the given length.
func GenerateOTPCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}

	var b strings.Builder
	b.Grow(length)
	max := big.NewInt(int64(len(otpDigits)))
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generating otp code: %w", err)
		}
		b.WriteByte(otpDigits[idx.Int64()])
	}
	return b.String(), nil
}
