package contractCaller

import (
	"context"

	"github.com/Layr-Labs/chainkey-client/pkg/chainkey"
	"github.com/ethereum/go-ethereum/common"
)

// Contract functions the client submits.
const (
	FnRegisterPublicKey = "registerPublicKey"
	FnPublishMessage    = "publishMessage"
	FnPingRequest       = "pingRequest"
	FnGetPublicKey      = "getPublicKey"
)

// ISubmitter sends a contract transaction and returns its hash.
type ISubmitter interface {
	Submit(ctx context.Context, functionName string, args ...interface{}) (common.Hash, error)
}

// IPublicKeyReader reads the key slots registered for an owner.
type IPublicKeyReader interface {
	GetPublicKeyChunks(ctx context.Context, owner common.Address) (chainkey.ChunkSequence, error)
}

type IContractCaller interface {
	ISubmitter
	IPublicKeyReader
}
