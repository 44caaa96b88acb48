package signer

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	"github.com/tyler-smith/go-bip39"
)

// LocalSigner holds a secp256k1 key in memory.
type LocalSigner struct {
	priv    *secp256k1.PrivateKey
	address common.Address
}

func NewLocalSigner(priv *secp256k1.PrivateKey) (*LocalSigner, error) {
	if priv == nil {
		return nil, fmt.Errorf("nil private key")
	}
	addr, err := AddressFromPubKey(priv.PubKey())
	if err != nil {
		return nil, err
	}
	return &LocalSigner{priv: priv, address: addr}, nil
}

// NewLocalSignerFromHex loads a 32-byte hex private key, with or without 0x.
func NewLocalSignerFromHex(hexKey string) (*LocalSigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("private key hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(raw))
	}

	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(raw); overflow || scalar.IsZero() {
		return nil, fmt.Errorf("private key is not a valid secp256k1 scalar")
	}
	return NewLocalSigner(secp256k1.NewPrivateKey(&scalar))
}

// NewLocalSignerFromMnemonic derives the account at m/44'/60'/0'/0/<index>.
func NewLocalSignerFromMnemonic(mnemonic string, index uint32) (*LocalSigner, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return nil, fmt.Errorf("MNEMONIC is required")
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("MNEMONIC is not a valid BIP-39 mnemonic")
	}

	wallet, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet from mnemonic: %w", err)
	}
	path := hdwallet.MustParseDerivationPath(fmt.Sprintf("m/44'/60'/0'/0/%d", index))
	account, err := wallet.Derive(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to derive account at index %d: %w", index, err)
	}
	ecdsaKey, err := wallet.PrivateKey(account)
	if err != nil {
		return nil, fmt.Errorf("failed to load derived private key: %w", err)
	}

	return NewLocalSigner(secp256k1.PrivKeyFromBytes(ecdsaKey.D.FillBytes(make([]byte, 32))))
}

func (s *LocalSigner) Address() common.Address {
	return s.address
}

func (s *LocalSigner) SignRaw(ctx context.Context, hash []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Sign(s.priv, hash)
}

// Seed returns the lowercase hex private key without 0x, the default RSA derivation seed.
func (s *LocalSigner) Seed() []byte {
	raw := s.priv.Key.Bytes()
	return []byte(hex.EncodeToString(raw[:]))
}

// PrivateKeyHex returns the 0x-prefixed private key, as expected by transactors.
func (s *LocalSigner) PrivateKeyHex() string {
	return "0x" + string(s.Seed())
}
