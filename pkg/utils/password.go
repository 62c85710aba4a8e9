package utils

import (
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost 测试里可调低
var BcryptCost = bcrypt.DefaultCost

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword verifies pw against a stored digest. Digests written by the
// previous storefront are 32-bit rolling hashes; those still verify but
// report needsRehash so the caller can replace them with bcrypt.
func CheckPassword(pw, hashed string) (ok, needsRehash bool) {
	if hashed == "" {
		return false, false
	}
	if IsLegacyDigest(hashed) {
		return LegacyDigest(pw) == hashed, true
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil, false
}

// IsLegacyDigest: bcrypt 摘要以 "$2" 开头，旧摘要是十进制整数
func IsLegacyDigest(hashed string) bool {
	if strings.HasPrefix(hashed, "$2") {
		return false
	}
	_, err := strconv.ParseInt(hashed, 10, 32)
	return err == nil
}

// LegacyDigest reproduces the old h = h*31 + c hash over UTF-16 code units,
// truncated to int32.
func LegacyDigest(pw string) string {
	var h int32
	for _, r := range pw {
		if r > 0xFFFF {
			r -= 0x10000
			h = h*31 + int32(0xD800+(r>>10))
			h = h*31 + int32(0xDC00+(r&0x3FF))
			continue
		}
		h = h*31 + int32(r)
	}
	return strconv.FormatInt(int64(h), 10)
}
