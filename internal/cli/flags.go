package cli

import "github.com/urfave/cli/v2"

var (
	PrivateKeyFlag = &cli.StringFlag{
		Name:    "private-key",
		Usage:   "Hex secp256k1 signing key; its hex digits also seed the RSA key pair",
		EnvVars: []string{"PRIVATE_KEY"},
	}

	MnemonicFlag = &cli.StringFlag{
		Name:    "mnemonic",
		Usage:   "BIP-39 mnemonic for the signing identity (used when --private-key is unset)",
		EnvVars: []string{"MNEMONIC"},
	}

	AccountIndexFlag = &cli.UintFlag{
		Name:    "account-index",
		Usage:   "Account index in m/44'/60'/0'/0/<index> when using --mnemonic",
		EnvVars: []string{"ACCOUNT_INDEX"},
	}

	SeedFlag = &cli.StringFlag{
		Name:    "seed",
		Usage:   "Explicit RSA derivation seed, overriding the signing key",
		EnvVars: []string{"RSA_SEED"},
	}

	ETHRpcURLFlag = &cli.StringFlag{
		Name:    "eth-rpc-url",
		Usage:   "Ethereum RPC URL (e.g. http://localhost:8545); payloads are printed instead of submitted when unset",
		EnvVars: []string{"ETH_RPC_URL"},
	}

	ContractAddressFlag = &cli.StringFlag{
		Name:    "contract-address",
		Usage:   "Sentient contract address",
		EnvVars: []string{"CONTRACT_ADDRESS"},
	}

	ChainIDFlag = &cli.Uint64Flag{
		Name:    "chain-id",
		Usage:   "Chain ID for signing transactions (0 queries the node)",
		EnvVars: []string{"CHAIN_ID"},
	}

	PublicKeyFileFlag = &cli.StringFlag{
		Name:  "public-key-file",
		Usage: "Path to an RSA public key PEM file",
		Value: "publicKey.pem",
	}

	PrivateKeyFileFlag = &cli.StringFlag{
		Name:  "private-key-file",
		Usage: "Path to an RSA private key PEM file",
		Value: "privateKey.pem",
	}

	OutputFileFlag = &cli.StringFlag{
		Name:  "output",
		Usage: "Output file path (stdout when unset)",
	}

	Debug = &cli.BoolFlag{
		Name:    "debug",
		Usage:   "Enable debug logging",
		EnvVars: []string{"DEBUG"},
	}

	RecipientFlag = &cli.StringFlag{
		Name:     "recipient",
		Usage:    "Recipient address",
		Required: true,
	}

	SenderFlag = &cli.StringFlag{
		Name:     "sender",
		Usage:    "Sender address",
		Required: true,
	}

	RecipientKeyFileFlag = &cli.StringFlag{
		Name:  "recipient-key-file",
		Usage: "Recipient RSA public key PEM file (fetched from the contract when unset)",
	}

	CiphertextFlag = &cli.StringFlag{
		Name:     "ciphertext",
		Usage:    "Base64 ciphertext",
		Required: true,
	}

	SignatureFlag = &cli.StringFlag{
		Name:     "signature",
		Usage:    "0x-prefixed 65-byte signature",
		Required: true,
	}

	StrictFlag = &cli.BoolFlag{
		Name:  "strict",
		Usage: "Fail instead of truncating keys that exceed the on-chain chunk capacity",
	}

	KeyFlag = &cli.StringFlag{
		Name:     "key",
		Usage:    "32-byte hex data key for pingRequest",
		Required: true,
	}

	OwnerFlag = &cli.StringFlag{
		Name:     "owner",
		Usage:    "Address whose registered key is fetched",
		Required: true,
	}
)
