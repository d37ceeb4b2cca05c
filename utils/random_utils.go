package utils

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
)

// RandomInt32 generates a secure random 32-bit integer
func RandomInt32() int32 {
	var num int32
	err := binary.Read(rand.Reader, binary.BigEndian, &num)
	if err != nil {
		panic("generate random int32 failed")
	}

	return num
}

// RandomDigit returns a secure random digit in [min, max]
func RandomDigit(min, max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	if err != nil {
		panic("generate random digit failed")
	}
	return min + int(n.Int64())
}
