// Package messaging ties derived RSA keys to an Ethereum identity. It builds
// the signed payloads for key registration and message publication, and
// verifies messages published by others.
//
// Nothing here performs network I/O except through the Signer and ISubmitter
// collaborators, whose context handling is passed through unchanged.
package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/Layr-Labs/chainkey-client/pkg/chainkey"
	"github.com/Layr-Labs/chainkey-client/pkg/contractCaller"
	"github.com/Layr-Labs/chainkey-client/pkg/crypto"
	"github.com/Layr-Labs/chainkey-client/pkg/signer"
	"github.com/Layr-Labs/chainkey-client/pkg/types"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// ErrRecipientKeyUnusable is returned when the key registered on chain cannot
// be parsed, which is the case for any key longer than chainkey.Capacity.
var ErrRecipientKeyUnusable = errors.New("registered recipient key is not a usable RSA key")

// Identity is one participant: a derived RSA key pair plus the signer that owns it.
type Identity struct {
	KeyPair crypto.KeyPair
	Signer  signer.Signer
}

func NewIdentity(kp *crypto.KeyPair, s signer.Signer) (*Identity, error) {
	if kp == nil || kp.PublicKeyPEM == "" || kp.PrivateKeyPEM == "" {
		return nil, fmt.Errorf("key pair cannot be empty")
	}
	if s == nil {
		return nil, fmt.Errorf("signer cannot be nil")
	}
	return &Identity{KeyPair: *kp, Signer: s}, nil
}

// DeriveIdentity derives the RSA key pair from the signer's own private key.
func DeriveIdentity(s *signer.LocalSigner) (*Identity, error) {
	if s == nil {
		return nil, fmt.Errorf("signer cannot be nil")
	}
	kp, err := crypto.DeriveKeyPair(s.Seed())
	if err != nil {
		return nil, fmt.Errorf("failed to derive RSA key pair: %w", err)
	}
	return NewIdentity(kp, s)
}

// Messenger acts for a single Identity. It holds no mutable state and is safe for concurrent use.
type Messenger struct {
	identity  *Identity
	submitter contractCaller.ISubmitter
}

// NewMessenger creates a Messenger. submitter may be nil, in which case only
// payload construction and verification are available.
func NewMessenger(identity *Identity, submitter contractCaller.ISubmitter) (*Messenger, error) {
	if identity == nil {
		return nil, fmt.Errorf("identity cannot be nil")
	}
	return &Messenger{identity: identity, submitter: submitter}, nil
}

func (m *Messenger) Address() common.Address {
	return m.identity.Signer.Address()
}

func (m *Messenger) PublicKeyPEM() string {
	return m.identity.KeyPair.PublicKeyPEM
}

// RegisterPublicKey signs the held public key and packs it into chunks.
func (m *Messenger) RegisterPublicKey(ctx context.Context) (*types.Registration, error) {
	pemKey := m.identity.KeyPair.PublicKeyPEM

	chunks, err := chainkey.ToChunks(pemKey)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk public key: %w", err)
	}

	signed, err := m.sign(ctx, RegistrationHash(pemKey))
	if err != nil {
		return nil, err
	}

	return &types.Registration{
		PublicKeyPEM:  pemKey,
		Chunks:        chunks,
		SignedPayload: *signed,
	}, nil
}

// PublishMessage encrypts plaintext for the recipient and signs the
// (recipient, ciphertext) pair.
func (m *Messenger) PublishMessage(ctx context.Context, recipient common.Address, recipientPublicKeyPEM string, plaintext []byte) (*types.Publication, error) {
	ciphertext, err := crypto.Encrypt(plaintext, recipientPublicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt message: %w", err)
	}

	signed, err := m.sign(ctx, MessageHash(recipient, ciphertext))
	if err != nil {
		return nil, err
	}

	return &types.Publication{
		Recipient:     recipient,
		Ciphertext:    ciphertext,
		SignedPayload: *signed,
	}, nil
}

// VerifyMessage checks that sender signed the (recipient, ciphertext) pair.
func (m *Messenger) VerifyMessage(sender, recipient common.Address, ciphertext string, signature []byte) bool {
	return VerifyMessage(sender, recipient, ciphertext, signature)
}

// DecryptMessage decrypts a ciphertext addressed to this identity.
func (m *Messenger) DecryptMessage(ciphertext string) ([]byte, error) {
	return crypto.Decrypt(ciphertext, m.identity.KeyPair.PrivateKeyPEM)
}

// SubmitRegistration hands a registration to the contract layer.
func (m *Messenger) SubmitRegistration(ctx context.Context, reg *types.Registration) (common.Hash, error) {
	if m.submitter == nil {
		return common.Hash{}, fmt.Errorf("no submitter configured")
	}
	slots, err := reg.Chunks.Bytes32()
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid registration chunks: %w", err)
	}
	return m.submitter.Submit(ctx, contractCaller.FnRegisterPublicKey, slots, []byte(reg.Signature))
}

// SubmitPublication hands a publication to the contract layer.
func (m *Messenger) SubmitPublication(ctx context.Context, pub *types.Publication) (common.Hash, error) {
	if m.submitter == nil {
		return common.Hash{}, fmt.Errorf("no submitter configured")
	}
	return m.submitter.Submit(ctx, contractCaller.FnPublishMessage, pub.Recipient, pub.Ciphertext, []byte(pub.Signature))
}

// SignPing signs a data key for pingRequest.
func (m *Messenger) SignPing(ctx context.Context, key [32]byte) (*types.Ping, error) {
	signed, err := m.sign(ctx, common.Hash(key))
	if err != nil {
		return nil, err
	}
	return &types.Ping{Key: common.Hash(key), SignedPayload: *signed}, nil
}

// PingRequest signs key and submits pingRequest.
func (m *Messenger) PingRequest(ctx context.Context, key [32]byte) (*types.Ping, common.Hash, error) {
	if m.submitter == nil {
		return nil, common.Hash{}, fmt.Errorf("no submitter configured")
	}
	ping, err := m.SignPing(ctx, key)
	if err != nil {
		return nil, common.Hash{}, err
	}
	txHash, err := m.submitter.Submit(ctx, contractCaller.FnPingRequest, [32]byte(ping.Key), []byte(ping.Signature))
	if err != nil {
		return nil, common.Hash{}, err
	}
	return ping, txHash, nil
}

// sign applies the EIP-191 prefix to the 32 raw hash bytes, not to a text rendering of them.
func (m *Messenger) sign(ctx context.Context, hash common.Hash) (*types.SignedPayload, error) {
	sig, err := m.identity.Signer.SignRaw(ctx, accounts.TextHash(hash.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}
	return &types.SignedPayload{
		Hash:      hash,
		Signature: sig,
		Signer:    m.identity.Signer.Address(),
	}, nil
}

// RegistrationHash is keccak256 of the PEM text.
func RegistrationHash(publicKeyPEM string) common.Hash {
	return ethcrypto.Keccak256Hash([]byte(publicKeyPEM))
}

// MessageHash is keccak256(leftPad32(recipient) || keccak256(ciphertext)).
func MessageHash(recipient common.Address, ciphertext string) common.Hash {
	return ethcrypto.Keccak256Hash(
		common.LeftPadBytes(recipient.Bytes(), 32),
		ethcrypto.Keccak256([]byte(ciphertext)),
	)
}

// VerifyMessage checks an EIP-191 signature over MessageHash against sender.
func VerifyMessage(sender, recipient common.Address, ciphertext string, signature []byte) bool {
	digest := accounts.TextHash(MessageHash(recipient, ciphertext).Bytes())
	return signer.Verify(digest, signature, sender.Hex())
}

// VerifyRegistration checks an EIP-191 signature over RegistrationHash against owner.
func VerifyRegistration(owner common.Address, publicKeyPEM string, signature []byte) bool {
	digest := accounts.TextHash(RegistrationHash(publicKeyPEM).Bytes())
	return signer.Verify(digest, signature, owner.Hex())
}

// VerifyPing checks an EIP-191 signature over a pingRequest data key against requester.
func VerifyPing(requester common.Address, key [32]byte, signature []byte) bool {
	digest := accounts.TextHash(key[:])
	return signer.Verify(digest, signature, requester.Hex())
}

// RecipientKeyFromChain rebuilds the key registered for recipient and checks it
// parses. Keys that were truncated on registration fail with ErrRecipientKeyUnusable.
func RecipientKeyFromChain(ctx context.Context, reader contractCaller.IPublicKeyReader, recipient common.Address) (string, error) {
	chunks, err := reader.GetPublicKeyChunks(ctx, recipient)
	if err != nil {
		return "", err
	}
	pemKey, err := chainkey.FromChunks(chunks)
	if err != nil {
		return "", fmt.Errorf("failed to rebuild key of %s: %w", recipient.Hex(), err)
	}
	if _, err := crypto.RSAPublicKeyFromPEM([]byte(pemKey)); err != nil {
		return "", fmt.Errorf("%w: key of %s is truncated on chain (%v)", ErrRecipientKeyUnusable, recipient.Hex(), err)
	}
	return pemKey, nil
}
