package types

import (
	"github.com/Layr-Labs/chainkey-client/pkg/chainkey"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SignedPayload is a digest together with the signature and the address that produced it.
// Signature is R || S || V with V in {27, 28}.
type SignedPayload struct {
	Hash      common.Hash    `json:"hash"`
	Signature hexutil.Bytes  `json:"signature"`
	Signer    common.Address `json:"signer"`
}

// Registration is the payload for registerPublicKey. Hash commits to the full PEM;
// Chunks is what fits on chain.
type Registration struct {
	PublicKeyPEM string                 `json:"publicKeyPem"`
	Chunks       chainkey.ChunkSequence `json:"chunks"`
	SignedPayload
}

// Publication is the payload for publishMessage.
type Publication struct {
	Recipient  common.Address `json:"recipient"`
	Ciphertext string         `json:"ciphertext"` // base64 RSA-OAEP-SHA256
	SignedPayload
}

// Ping is the payload for pingRequest. Hash is the data key itself.
type Ping struct {
	Key common.Hash `json:"key"`
	SignedPayload
}
