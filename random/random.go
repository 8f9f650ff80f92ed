package random

import (
	crand "crypto/rand"
	"math/big"
)

const charset = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const referencePrefix = "GV-"

// Code returns length characters drawn from an unambiguous upper-case
// alphabet using crypto/rand.
func Code(length int) (string, error) {
	l := big.NewInt(int64(len(charset)))
	b := make([]byte, length)
	for i := range b {
		num, err := crand.Int(crand.Reader, l)
		if err != nil {
			return "", err
		}
		b[i] = charset[num.Int64()]
	}
	return string(b), nil
}

// Reference is the order reference shown to customers, e.g. GV-7K2M9QX4PD.
func Reference() (string, error) {
	c, err := Code(10)
	if err != nil {
		return "", err
	}
	return referencePrefix + c, nil
}
