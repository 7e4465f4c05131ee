// Package cryptox wraps the primitives SecureVault relies on: argon2id for
// password hashing and key derivation, and AES-256-GCM for sealing secrets
// at rest.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"errors"

	"github.com/dmitrijs2005/securevault/internal/common"
	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of a freshly generated per-user salt.
const SaltSize = 16

var ErrDecrypt = errors.New("decryption failed")

// DeriveMasterKey stretches password with argon2id into a 32-byte key.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	x := argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
	return x
}

// HashPassword returns a fresh salt and the argon2id hash of password.
func HashPassword(password string) (hash, salt []byte) {
	salt = common.GenerateRandByteArray(SaltSize)
	return DeriveMasterKey([]byte(password), salt), salt
}

// VerifyPassword compares password against a stored hash in constant time.
func VerifyPassword(password string, hash, salt []byte) bool {
	candidate := DeriveMasterKey([]byte(password), salt)
	defer common.WipeByteArray(candidate)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}

// Seal encrypts plaintext with AES-GCM under key, binding it to aad.
// A new random nonce is generated for each call and returned separately.
//
// The key must be 16, 24 or 32 bytes long.
func Seal(plaintext, key, aad []byte) (ciphertext, nonce []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	ciphertext = aesgcm.Seal(nil, nonce, plaintext, aad)
	return ciphertext, nonce, nil
}

// Open reverses Seal. Any tampering with ciphertext, nonce or aad yields
// ErrDecrypt.
func Open(ciphertext, nonce, key, aad []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return nil, ErrDecrypt
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
