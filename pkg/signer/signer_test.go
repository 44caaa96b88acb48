package signer

import (
	"context"
	"crypto/sha256"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

const (
	// Well-known development account #0.
	devPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	devAddress    = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	devMnemonic   = "test test test test test test test test test test test junk"

	otherPrivateKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"
)

func fixedHash() []byte {
	h := sha256.Sum256([]byte("fixed payload"))
	return h[:]
}

func mustSigner(t *testing.T, hexKey string) *LocalSigner {
	t.Helper()
	s, err := NewLocalSignerFromHex(hexKey)
	if err != nil {
		t.Fatalf("NewLocalSignerFromHex: %v", err)
	}
	return s
}

func TestLocalSigner_Address(t *testing.T) {
	s := mustSigner(t, devPrivateKey)
	if s.Address() != common.HexToAddress(devAddress) {
		t.Fatalf("expected %s, got %s", devAddress, s.Address().Hex())
	}
	if string(s.Seed()) != strings.TrimPrefix(devPrivateKey, "0x") {
		t.Fatalf("unexpected seed %q", s.Seed())
	}
}

func TestLocalSigner_FromMnemonic(t *testing.T) {
	s, err := NewLocalSignerFromMnemonic(devMnemonic, 0)
	if err != nil {
		t.Fatalf("NewLocalSignerFromMnemonic: %v", err)
	}
	if s.Address() != common.HexToAddress(devAddress) {
		t.Fatalf("expected %s, got %s", devAddress, s.Address().Hex())
	}

	s1, err := NewLocalSignerFromMnemonic(devMnemonic, 1)
	if err != nil {
		t.Fatalf("NewLocalSignerFromMnemonic: %v", err)
	}
	if s1.Address() == s.Address() {
		t.Fatalf("expected different accounts for different indexes")
	}

	if _, err := NewLocalSignerFromMnemonic("not a mnemonic", 0); err == nil {
		t.Fatalf("expected invalid mnemonic error")
	}
}

func TestSignAndRecover(t *testing.T) {
	s := mustSigner(t, devPrivateKey)
	hash := fixedHash()

	sig, err := s.SignRaw(context.Background(), hash)
	if err != nil {
		t.Fatalf("SignRaw: %v", err)
	}
	if len(sig) != SignatureLength {
		t.Fatalf("expected %d-byte signature, got %d", SignatureLength, len(sig))
	}
	if sig[64] != 27 && sig[64] != 28 {
		t.Fatalf("expected V in {27,28}, got %d", sig[64])
	}

	addr, err := RecoverSigner(hash, sig)
	if err != nil {
		t.Fatalf("RecoverSigner: %v", err)
	}
	if addr != s.Address() {
		t.Fatalf("recovered %s, expected %s", addr.Hex(), s.Address().Hex())
	}

	if !Verify(hash, sig, strings.ToLower(devAddress)) {
		t.Fatalf("expected case-insensitive verification to succeed")
	}
	other := mustSigner(t, otherPrivateKey)
	if Verify(hash, sig, other.Address().Hex()) {
		t.Fatalf("expected verification against a different address to fail")
	}
}

func TestSign_MatchesGoEthereumRecovery(t *testing.T) {
	s := mustSigner(t, devPrivateKey)
	hash := fixedHash()

	sig, err := s.SignRaw(context.Background(), hash)
	if err != nil {
		t.Fatalf("SignRaw: %v", err)
	}

	ethSig := append([]byte{}, sig...)
	ethSig[64] -= 27
	pub, err := ethcrypto.SigToPub(hash, ethSig)
	if err != nil {
		t.Fatalf("SigToPub: %v", err)
	}
	if ethcrypto.PubkeyToAddress(*pub) != s.Address() {
		t.Fatalf("go-ethereum recovered a different address")
	}

	addr, err := RecoverSigner(hash, ethSig)
	if err != nil || addr != s.Address() {
		t.Fatalf("expected V in {0,1} to be accepted: addr=%s err=%v", addr.Hex(), err)
	}
}

func TestRecoverSigner_Malformed(t *testing.T) {
	hash := fixedHash()
	if _, err := RecoverSigner(hash, make([]byte, 10)); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	bad := make([]byte, SignatureLength)
	bad[64] = 40
	if _, err := RecoverSigner(hash, bad); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for bad V, got %v", err)
	}
	if Verify(hash, bad, devAddress) {
		t.Fatalf("expected malformed signature to fail verification")
	}
}

func TestTamperedHashRecoversDifferentSigner(t *testing.T) {
	s := mustSigner(t, devPrivateKey)
	hash := fixedHash()
	sig, err := s.SignRaw(context.Background(), hash)
	if err != nil {
		t.Fatalf("SignRaw: %v", err)
	}
	hash[0] ^= 0xff
	if Verify(hash, sig, s.Address().Hex()) {
		t.Fatalf("expected verification over a different hash to fail")
	}
}

func TestSignRaw_RejectsBadInput(t *testing.T) {
	s := mustSigner(t, devPrivateKey)
	if _, err := s.SignRaw(context.Background(), []byte("short")); err == nil {
		t.Fatalf("expected error for non-32-byte hash")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.SignRaw(ctx, fixedHash()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewLocalSignerFromHex_Invalid(t *testing.T) {
	for _, k := range []string{"", "0xzz", "0x01", "0x" + strings.Repeat("00", 32), "0x" + strings.Repeat("ff", 32)} {
		if _, err := NewLocalSignerFromHex(k); err == nil {
			t.Fatalf("expected error for %q", k)
		}
	}
}
