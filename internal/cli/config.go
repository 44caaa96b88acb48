package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/Layr-Labs/chainkey-client/pkg/signer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

type Config struct {
	PrivateKey      string
	Mnemonic        string
	AccountIndex    uint64
	Seed            string
	ETHRpcURL       string
	ContractAddress string
	ChainID         uint64
	PublicKeyFile   string
	PrivateKeyFile  string
	OutputFile      string
	Debug           bool
}

func NewConfigFromCLI(c *cli.Context) *Config {
	return &Config{
		PrivateKey:      c.String(PrivateKeyFlag.Name),
		Mnemonic:        c.String(MnemonicFlag.Name),
		AccountIndex:    uint64(c.Uint(AccountIndexFlag.Name)),
		Seed:            c.String(SeedFlag.Name),
		ETHRpcURL:       c.String(ETHRpcURLFlag.Name),
		ContractAddress: c.String(ContractAddressFlag.Name),
		ChainID:         c.Uint64(ChainIDFlag.Name),
		PublicKeyFile:   c.String(PublicKeyFileFlag.Name),
		PrivateKeyFile:  c.String(PrivateKeyFileFlag.Name),
		OutputFile:      c.String(OutputFileFlag.Name),
		Debug:           c.Bool(Debug.Name),
	}
}

func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Signer builds the signing identity, preferring an explicit private key over a mnemonic.
func (c *Config) Signer() (*signer.LocalSigner, error) {
	switch {
	case strings.TrimSpace(c.PrivateKey) != "":
		return signer.NewLocalSignerFromHex(c.PrivateKey)
	case strings.TrimSpace(c.Mnemonic) != "":
		if c.AccountIndex > math.MaxUint32 {
			return nil, fmt.Errorf("account index %d exceeds %d", c.AccountIndex, uint64(math.MaxUint32))
		}
		return signer.NewLocalSignerFromMnemonic(c.Mnemonic, uint32(c.AccountIndex))
	default:
		return nil, fmt.Errorf("either --private-key or --mnemonic is required")
	}
}

// RSASeed returns the explicit seed if set, otherwise the signer's key hex.
func (c *Config) RSASeed(s *signer.LocalSigner) []byte {
	if c.Seed != "" {
		return []byte(c.Seed)
	}
	if s == nil {
		return nil
	}
	return s.Seed()
}

// OnChain reports whether enough is configured to talk to the contract.
func (c *Config) OnChain() bool {
	return c.ETHRpcURL != "" && c.ContractAddress != ""
}

func (c *Config) Contract() (common.Address, error) {
	if !common.IsHexAddress(c.ContractAddress) {
		return common.Address{}, fmt.Errorf("invalid contract address %q", c.ContractAddress)
	}
	return common.HexToAddress(c.ContractAddress), nil
}
