package caller

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"
	"strings"
	"time"

	"github.com/Layr-Labs/chainkey-client/pkg/chainkey"
	"github.com/Layr-Labs/chainkey-client/pkg/contractCaller"
	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

const (
	initialInterval = 500 * time.Millisecond
	maxInterval     = 5 * time.Second
	multiplier      = 1.5
	maxElapsedTime  = 2 * time.Minute
)

type ContractsConfig struct {
	ContractAddress common.Address
}

func (cc *ContractsConfig) Validate() error {
	if cc.ContractAddress == (common.Address{}) {
		return fmt.Errorf("ContractAddress cannot be zero address")
	}
	return nil
}

type ContractCaller struct {
	logger          *zap.Logger
	contractsConfig *ContractsConfig
	contractABI     abi.ABI
	contract        *bind.BoundContract
	transactOpts    *bind.TransactOpts

	initialInterval time.Duration
	maxElapsedTime  time.Duration
}

var _ contractCaller.IContractCaller = (*ContractCaller)(nil)

// NewContractCaller binds the Sentient contract. transactOpts may be nil for a read-only caller.
func NewContractCaller(backend bind.ContractBackend, cfg *ContractsConfig, transactOpts *bind.TransactOpts, l *zap.Logger) (*ContractCaller, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if l == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("ContractsConfig cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ContractsConfig: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(SentientABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Sentient ABI: %w", err)
	}

	return &ContractCaller{
		logger:          l,
		contractsConfig: cfg,
		contractABI:     parsed,
		contract:        bind.NewBoundContract(cfg.ContractAddress, parsed, backend, backend, backend),
		transactOpts:    transactOpts,
		initialInterval: initialInterval,
		maxElapsedTime:  maxElapsedTime,
	}, nil
}

// NewKeyedTransactor builds signing options for a hex private key on chainID.
func NewKeyedTransactor(privateKeyHex string, chainID *big.Int) (*bind.TransactOpts, error) {
	key, err := ethcrypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("chain ID must be positive")
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	return opts, nil
}

// Submit packs args for functionName and sends the transaction, retrying transient RPC failures.
func (cc *ContractCaller) Submit(ctx context.Context, functionName string, args ...interface{}) (common.Hash, error) {
	if cc.transactOpts == nil {
		return common.Hash{}, fmt.Errorf("contract caller is read-only")
	}
	method, ok := cc.contractABI.Methods[functionName]
	if !ok {
		return common.Hash{}, fmt.Errorf("unknown contract function %q", functionName)
	}
	if method.IsConstant() {
		return common.Hash{}, fmt.Errorf("contract function %q is read-only", functionName)
	}
	if _, err := cc.contractABI.Pack(functionName, args...); err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack %s arguments: %w", functionName, err)
	}

	opts := *cc.transactOpts
	opts.Context = ctx

	cc.logger.Sugar().Debugw("Submitting transaction",
		"function", functionName,
		"contract", cc.contractsConfig.ContractAddress.Hex(),
		"from", opts.From.Hex())

	tx, err := retryRPC(ctx, cc, "Sending "+functionName+" transaction...", func() (*ethtypes.Transaction, error) {
		return cc.contract.Transact(&opts, functionName, args...)
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to submit %s: %w", functionName, err)
	}

	cc.logger.Sugar().Infow("Transaction submitted", "function", functionName, "tx_hash", tx.Hash().Hex())
	return tx.Hash(), nil
}

// GetPublicKeyChunks reads the bytes32[4] key slots stored for owner.
func (cc *ContractCaller) GetPublicKeyChunks(ctx context.Context, owner common.Address) (chainkey.ChunkSequence, error) {
	cc.logger.Sugar().Debugw("Fetching public key chunks", "owner", owner.Hex())

	out, err := retryRPC(ctx, cc, "Fetching public key chunks...", func() ([]interface{}, error) {
		var out []interface{}
		if err := cc.contract.Call(&bind.CallOpts{Context: ctx}, &out, contractCaller.FnGetPublicKey, owner); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("expected 1 return value, got %d", len(out))
	}

	slots := *abi.ConvertType(out[0], new([chainkey.MaxChunks][chainkey.ChunkSize]byte)).(*[chainkey.MaxChunks][chainkey.ChunkSize]byte)
	return chainkey.FromBytes32(slots), nil
}

func retryRPC[T any](ctx context.Context, cc *ContractCaller, logMessage string, operation func() (T, error)) (T, error) {
	retries := 0
	wrappedOperation := func() (T, error) {
		cc.logger.Sugar().Debugw(logMessage, "retries", retries)
		retries++
		result, err := operation()
		if err != nil && !isTransient(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}

	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = cc.initialInterval
	exponentialBackoff.MaxInterval = maxInterval
	exponentialBackoff.Multiplier = multiplier

	return backoff.Retry(
		ctx,
		wrappedOperation,
		backoff.WithBackOff(exponentialBackoff),
		backoff.WithMaxElapsedTime(cc.maxElapsedTime),
	)
}

// isTransient reports whether err looks like a connectivity failure rather than
// a rejection by the node or the contract.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
