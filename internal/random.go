package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
)

const (
	codeMin = 100000
	codeMax = 999999
)

var codeSpan = big.NewInt(codeMax - codeMin + 1)

// NewVerificationCode returns a uniformly random six-digit code in
// [100000, 999999].
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", err
	}
	code := strconv.FormatInt(n.Int64()+codeMin, 10)
	if len(code) != 6 {
		return "", errors.New("invalid verification code length")
	}
	return code, nil
}
