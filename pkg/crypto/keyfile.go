package crypto

import (
	"fmt"
	"os"
)

const keyFileMode = 0600

// SaveKeyPair writes both PEMs to disk, readable only by the owner.
func SaveKeyPair(kp *KeyPair, publicKeyPath, privateKeyPath string) error {
	if kp == nil {
		return fmt.Errorf("nil key pair")
	}
	if err := os.WriteFile(publicKeyPath, []byte(kp.PublicKeyPEM), keyFileMode); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}
	if err := os.WriteFile(privateKeyPath, []byte(kp.PrivateKeyPEM), keyFileMode); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	return nil
}

// LoadKeyPair reads a pair written by SaveKeyPair and checks both halves parse.
func LoadKeyPair(publicKeyPath, privateKeyPath string) (*KeyPair, error) {
	publicKeyPEM, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	privateKeyPEM, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	pub, err := RSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, err
	}
	priv, err := RSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, err
	}
	if !priv.PublicKey.Equal(pub) {
		return nil, fmt.Errorf("%w: public and private key files do not match", ErrInvalidKey)
	}

	return &KeyPair{PublicKeyPEM: string(publicKeyPEM), PrivateKeyPEM: string(privateKeyPEM)}, nil
}
