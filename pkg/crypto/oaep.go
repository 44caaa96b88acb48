package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// MaxPlaintextSize returns the largest plaintext RSA-OAEP-SHA256 can carry under pub.
func MaxPlaintextSize(pub *rsa.PublicKey) int {
	return pub.Size() - 2*sha256.Size - 2
}

// Encrypt encrypts plaintext with RSA-OAEP (SHA-256 digest and MGF1) and returns base64 text.
func Encrypt(plaintext []byte, publicKeyPEM string) (string, error) {
	pub, err := RSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return "", err
	}

	if limit := MaxPlaintextSize(pub); len(plaintext) > limit {
		return "", fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrMessageTooLarge, len(plaintext), limit)
	}

	encrypted, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt message: %w", err)
	}
	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// Decrypt reverses Encrypt. Any unpadding failure, including a non-matching key,
// is reported as ErrDecryption.
func Decrypt(ciphertext string, privateKeyPEM string) ([]byte, error) {
	encrypted, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext base64: %v", ErrDecryption, err)
	}

	priv, err := RSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return nil, err
	}

	plaintext, err := rsa.DecryptOAEP(sha256.New(), nil, priv, encrypted, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return plaintext, nil
}
