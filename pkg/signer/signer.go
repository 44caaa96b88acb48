package signer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secp256k1ecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

const (
	// SignatureLength is the size of an R || S || V signature.
	SignatureLength = 65
	// HashLength is the size of the digest a signature covers.
	HashLength = 32

	legacyRecoveryOffset = 27
)

var ErrInvalidSignature = errors.New("invalid signature")

// Signer signs 32-byte digests on behalf of an Ethereum identity.
// Implementations backed by a remote wallet may block until the user approves.
type Signer interface {
	Address() common.Address
	SignRaw(ctx context.Context, hash []byte) ([]byte, error)
}

// Sign produces a recoverable secp256k1 signature over hash in R || S || V form
// with V in {27, 28}. hash is signed as-is, no prefix is applied.
func Sign(priv *secp256k1.PrivateKey, hash []byte) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("nil private key")
	}
	if len(hash) != HashLength {
		return nil, fmt.Errorf("expected %d-byte message hash, got %d", HashLength, len(hash))
	}

	// compact is V || R || S with V = 27 + recid for an uncompressed key.
	compact := secp256k1ecdsa.SignCompact(priv, hash, false)

	sig := make([]byte, SignatureLength)
	copy(sig, compact[1:])
	sig[64] = compact[0]
	return sig, nil
}

// RecoverSigner returns the address whose key produced sig over hash.
// Both V conventions (0/1 and 27/28) are accepted.
func RecoverSigner(hash, sig []byte) (common.Address, error) {
	if len(hash) != HashLength {
		return common.Address{}, fmt.Errorf("expected %d-byte message hash, got %d", HashLength, len(hash))
	}
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, SignatureLength, len(sig))
	}

	v := sig[64]
	if v < legacyRecoveryOffset {
		v += legacyRecoveryOffset
	}
	if v != legacyRecoveryOffset && v != legacyRecoveryOffset+1 {
		return common.Address{}, fmt.Errorf("%w: unsupported recovery id %d", ErrInvalidSignature, sig[64])
	}

	compact := make([]byte, SignatureLength)
	compact[0] = v
	copy(compact[1:], sig[:64])

	pub, _, err := secp256k1ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return AddressFromPubKey(pub)
}

// Verify reports whether sig over hash was produced by expectedAddress.
// The address comparison ignores case; malformed input is a failed verification.
func Verify(hash, sig []byte, expectedAddress string) bool {
	recovered, err := RecoverSigner(hash, sig)
	if err != nil {
		return false
	}
	return strings.EqualFold(recovered.Hex(), strings.TrimSpace(expectedAddress))
}

// AddressFromPubKey derives the Ethereum address of a secp256k1 public key.
func AddressFromPubKey(pub *secp256k1.PublicKey) (common.Address, error) {
	if pub == nil {
		return common.Address{}, fmt.Errorf("nil secp256k1 public key")
	}
	// Ethereum address = last 20 bytes of keccak256(uncompressed_pubkey[1:])
	uncompressed := pub.SerializeUncompressed()
	if len(uncompressed) != 65 || uncompressed[0] != 0x04 {
		return common.Address{}, fmt.Errorf("unexpected secp256k1 uncompressed pubkey encoding")
	}

	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(uncompressed[1:])
	sum := h.Sum(nil)
	return common.BytesToAddress(sum[len(sum)-20:]), nil
}
