package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashKioskSecret hashes the shared kiosk enrollment secret with bcrypt. The
// hash goes into POINTAGE_KIOSK_SECRET_HASH; kiosks present the plaintext
// when requesting a token.
func HashKioskSecret(secret string) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("kiosk secret is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyKioskSecret compares a presented secret with the configured hash.
func VerifyKioskSecret(hash, secret string) error {
	if hash == "" {
		return errors.New("kiosk secret hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
}
