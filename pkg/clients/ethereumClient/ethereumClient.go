package ethereumClient

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
)

func GetEthClient(ctx context.Context, rpcUrl string) (*ethclient.Client, error) {
	d, err := ethclient.DialContext(ctx, rpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcUrl, err)
	}
	return d, nil
}

// ResolveChainID returns configured when non-zero, otherwise asks the node.
func ResolveChainID(ctx context.Context, client *ethclient.Client, configured uint64) (*big.Int, error) {
	if configured != 0 {
		return new(big.Int).SetUint64(configured), nil
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query chain ID: %w", err)
	}
	return chainID, nil
}
