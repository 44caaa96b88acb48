package crypto

import "errors"

var (
	// ErrSeedEmpty is returned when no seed material is available for key derivation.
	ErrSeedEmpty = errors.New("seed is empty")

	// ErrKeyGeneration is returned when the prime search exhausts its retry bound.
	ErrKeyGeneration = errors.New("rsa key generation failed")

	// ErrMessageTooLarge is returned when a plaintext exceeds the OAEP capacity of the key.
	ErrMessageTooLarge = errors.New("message too large for rsa-oaep")

	// ErrDecryption is returned when OAEP unpadding fails, e.g. for a non-matching private key.
	ErrDecryption = errors.New("rsa-oaep decryption failed")

	// ErrInvalidKey is returned when a PEM block does not hold a usable RSA key.
	ErrInvalidKey = errors.New("invalid rsa key")
)
