package verification

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	CodeLength = 8

	minCode = 10_000_000
	maxCode = 99_999_999
)

// Generator produces 8-digit numeric codes. Rand defaults to crypto/rand.Reader.
type Generator struct {
	Rand io.Reader
}

func (g Generator) NewCode() (string, error) {
	r := g.Rand
	if r == nil {
		r = rand.Reader
	}
	n, err := rand.Int(r, big.NewInt(maxCode-minCode))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+minCode), nil
}
