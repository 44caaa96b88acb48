package caller

import (
	"context"
	"errors"
	"math/big"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/Layr-Labs/chainkey-client/pkg/chainkey"
	"github.com/Layr-Labs/chainkey-client/pkg/contractCaller"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

const devPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

var contractAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

// fakeBackend implements only the backend calls reached by these tests;
// anything else panics on the nil embedded interface.
type fakeBackend struct {
	bind.ContractBackend

	callResult []byte
	lastCall   ethereum.CallMsg

	sendFailures int
	sent         []*ethtypes.Transaction
}

func (f *fakeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.lastCall = call
	return f.callResult, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *ethtypes.Transaction) error {
	if f.sendFailures > 0 {
		f.sendFailures--
		return &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	}
	f.sent = append(f.sent, tx)
	return nil
}

func newTestCaller(t *testing.T, backend *fakeBackend, withTransactor bool) *ContractCaller {
	t.Helper()
	var opts *bind.TransactOpts
	if withTransactor {
		var err error
		opts, err = NewKeyedTransactor(devPrivateKey, big.NewInt(31337))
		if err != nil {
			t.Fatalf("NewKeyedTransactor: %v", err)
		}
		// Fixed gas settings keep Transact off the estimation RPCs.
		opts.GasPrice = big.NewInt(1_000_000_000)
		opts.GasLimit = 500_000
		opts.Nonce = big.NewInt(0)
	}
	cc, err := NewContractCaller(backend, &ContractsConfig{ContractAddress: contractAddress}, opts, zap.NewNop())
	if err != nil {
		t.Fatalf("NewContractCaller: %v", err)
	}
	cc.initialInterval = time.Millisecond
	cc.maxElapsedTime = 5 * time.Second
	return cc
}

func TestNewContractCaller_Validation(t *testing.T) {
	if _, err := NewContractCaller(nil, &ContractsConfig{ContractAddress: contractAddress}, nil, zap.NewNop()); err == nil {
		t.Fatalf("expected error for nil backend")
	}
	if _, err := NewContractCaller(&fakeBackend{}, &ContractsConfig{}, nil, zap.NewNop()); err == nil {
		t.Fatalf("expected error for zero contract address")
	}
	if _, err := NewContractCaller(&fakeBackend{}, &ContractsConfig{ContractAddress: contractAddress}, nil, nil); err == nil {
		t.Fatalf("expected error for nil logger")
	}
}

func TestSubmit_RejectsBadCalls(t *testing.T) {
	readOnly := newTestCaller(t, &fakeBackend{}, false)
	if _, err := readOnly.Submit(context.Background(), contractCaller.FnPingRequest, [32]byte{}, []byte{}); err == nil {
		t.Fatalf("expected read-only caller to refuse submission")
	}

	cc := newTestCaller(t, &fakeBackend{}, true)
	if _, err := cc.Submit(context.Background(), "selfDestruct"); err == nil {
		t.Fatalf("expected unknown function error")
	}
	if _, err := cc.Submit(context.Background(), contractCaller.FnGetPublicKey, contractAddress); err == nil {
		t.Fatalf("expected view function to be refused")
	}
	if _, err := cc.Submit(context.Background(), contractCaller.FnPublishMessage, "not an address"); err == nil || !strings.Contains(err.Error(), "pack") {
		t.Fatalf("expected pack error, got %v", err)
	}
}

func TestSubmit_SendsPackedTransaction(t *testing.T) {
	backend := &fakeBackend{sendFailures: 2}
	cc := newTestCaller(t, backend, true)

	var slots [chainkey.MaxChunks][chainkey.ChunkSize]byte
	slots[0][0] = 0x30
	sig := make([]byte, 65)

	hash, err := cc.Submit(context.Background(), contractCaller.FnRegisterPublicKey, slots, sig)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(backend.sent) != 1 {
		t.Fatalf("expected one transaction after retries, got %d", len(backend.sent))
	}
	tx := backend.sent[0]
	if tx.Hash() != hash {
		t.Fatalf("returned hash does not match sent transaction")
	}
	if tx.To() == nil || *tx.To() != contractAddress {
		t.Fatalf("transaction sent to wrong address")
	}

	want, err := cc.contractABI.Pack(contractCaller.FnRegisterPublicKey, slots, sig)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if string(tx.Data()) != string(want) {
		t.Fatalf("unexpected calldata")
	}
}

func TestGetPublicKeyChunks(t *testing.T) {
	var slots [chainkey.MaxChunks][chainkey.ChunkSize]byte
	for i := range slots {
		slots[i][0] = byte(i + 1)
	}

	parsed, err := abi.JSON(strings.NewReader(SentientABI))
	if err != nil {
		t.Fatalf("abi.JSON: %v", err)
	}
	result, err := parsed.Methods[contractCaller.FnGetPublicKey].Outputs.Pack(slots)
	if err != nil {
		t.Fatalf("Outputs.Pack: %v", err)
	}

	backend := &fakeBackend{callResult: result}
	cc := newTestCaller(t, backend, false)

	owner := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	chunks, err := cc.GetPublicKeyChunks(context.Background(), owner)
	if err != nil {
		t.Fatalf("GetPublicKeyChunks: %v", err)
	}
	if len(chunks) != chainkey.MaxChunks {
		t.Fatalf("expected %d chunks, got %d", chainkey.MaxChunks, len(chunks))
	}
	if want := chainkey.FromBytes32(slots); chunks[3] != want[3] {
		t.Fatalf("chunk mismatch: %s vs %s", chunks[3], want[3])
	}
	if backend.lastCall.To == nil || *backend.lastCall.To != contractAddress {
		t.Fatalf("call sent to wrong address")
	}
}

func TestIsTransient(t *testing.T) {
	if !isTransient(&net.OpError{Op: "dial", Err: errors.New("refused")}) {
		t.Fatalf("expected network error to be transient")
	}
	if isTransient(errors.New("execution reverted")) {
		t.Fatalf("expected revert to be permanent")
	}
	if isTransient(context.Canceled) {
		t.Fatalf("expected cancellation to be permanent")
	}
}
