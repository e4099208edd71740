package config

import (
	"crypto/md5" //nolint:gosec // wire format fixed by the backend
	"encoding/hex"
)

// HashPassword derives the credential sent to the backend:
// md5hex(username + md5hex(password)). The backend stores and compares this value,
// so the client never transmits the plain password.
func HashPassword(username, password string) string {
	return md5Hex(username + md5Hex(password))
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec // wire format fixed by the backend
	return hex.EncodeToString(sum[:])
}
