package utils

import (
	"crypto/md5"
	"encoding/hex"
)

// MD5Hash returns the hex MD5 digest of a string
func MD5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}
