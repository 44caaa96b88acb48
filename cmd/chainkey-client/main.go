package main

import (
	"context"
	"errors"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	ckcli "github.com/Layr-Labs/chainkey-client/internal/cli"
	"github.com/Layr-Labs/chainkey-client/pkg/chainkey"
	"github.com/Layr-Labs/chainkey-client/pkg/clients/ethereumClient"
	"github.com/Layr-Labs/chainkey-client/pkg/contractCaller/caller"
	"github.com/Layr-Labs/chainkey-client/pkg/crypto"
	"github.com/Layr-Labs/chainkey-client/pkg/messaging"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "chainkey-client",
		Usage: "Derive RSA keys from an Ethereum identity, register them on chain and exchange encrypted messages",
		Flags: []cli.Flag{
			ckcli.PrivateKeyFlag,
			ckcli.MnemonicFlag,
			ckcli.AccountIndexFlag,
			ckcli.SeedFlag,
			ckcli.ETHRpcURLFlag,
			ckcli.ContractAddressFlag,
			ckcli.ChainIDFlag,
			ckcli.OutputFileFlag,
			ckcli.Debug,
		},
		Commands: []*cli.Command{
			{
				Name:   "keygen",
				Usage:  "Derive the RSA key pair for the configured identity and write it to PEM files",
				Flags:  []cli.Flag{ckcli.PublicKeyFileFlag, ckcli.PrivateKeyFileFlag},
				Action: runKeygen,
			},
			{
				Name:   "chunks",
				Usage:  "Pack a public key PEM into bytes32[4] chunks",
				Flags:  []cli.Flag{ckcli.PublicKeyFileFlag, ckcli.StrictFlag},
				Action: runChunks,
			},
			{
				Name:      "encrypt",
				Usage:     "Encrypt a message for a public key",
				ArgsUsage: "<plaintext>",
				Flags:     []cli.Flag{ckcli.PublicKeyFileFlag},
				Action:    runEncrypt,
			},
			{
				Name:   "decrypt",
				Usage:  "Decrypt a message with the derived key or a private key file",
				Flags:  []cli.Flag{ckcli.CiphertextFlag, ckcli.PrivateKeyFileFlag},
				Action: runDecrypt,
			},
			{
				Name:   "register",
				Usage:  "Sign and register the derived public key",
				Action: runRegister,
			},
			{
				Name:      "publish",
				Usage:     "Encrypt, sign and publish a message to a recipient",
				ArgsUsage: "<plaintext>",
				Flags:     []cli.Flag{ckcli.RecipientFlag, ckcli.RecipientKeyFileFlag},
				Action:    runPublish,
			},
			{
				Name:   "ping",
				Usage:  "Sign a data key and send pingRequest",
				Flags:  []cli.Flag{ckcli.KeyFlag},
				Action: runPing,
			},
			{
				Name:   "verify",
				Usage:  "Verify a published message signature",
				Flags:  []cli.Flag{ckcli.SenderFlag, ckcli.RecipientFlag, ckcli.CiphertextFlag, ckcli.SignatureFlag},
				Action: runVerify,
			},
			{
				Name:   "fetch-key",
				Usage:  "Read a registered public key from the contract",
				Flags:  []cli.Flag{ckcli.OwnerFlag},
				Action: runFetchKey,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

type session struct {
	cfg    *ckcli.Config
	logger *zap.Logger
}

func newSession(c *cli.Context) (*session, error) {
	cfg := ckcli.NewConfigFromCLI(c)
	l, err := ckcli.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return &session{cfg: cfg, logger: l}, nil
}

// identity resolves the signer and derives its RSA key pair, honoring --seed.
func (r *session) identity() (*messaging.Identity, string, error) {
	s, err := r.cfg.Signer()
	if err != nil {
		return nil, "", err
	}
	kp, err := crypto.DeriveKeyPair(r.cfg.RSASeed(s))
	if err != nil {
		return nil, "", fmt.Errorf("failed to derive RSA key pair: %w", err)
	}
	id, err := messaging.NewIdentity(kp, s)
	if err != nil {
		return nil, "", err
	}
	return id, s.PrivateKeyHex(), nil
}

// contractCaller dials the node and binds the contract. privateKeyHex may be
// empty for read-only use.
func (r *session) contractCaller(ctx context.Context, privateKeyHex string) (*caller.ContractCaller, func(), error) {
	if !r.cfg.OnChain() {
		return nil, nil, fmt.Errorf("--eth-rpc-url and --contract-address are required")
	}
	address, err := r.cfg.Contract()
	if err != nil {
		return nil, nil, err
	}

	r.logger.Sugar().Infow("Connecting to Ethereum", "rpc", r.cfg.ETHRpcURL)
	client, err := ethereumClient.GetEthClient(ctx, r.cfg.ETHRpcURL)
	if err != nil {
		return nil, nil, err
	}

	var opts *bind.TransactOpts
	if privateKeyHex != "" {
		chainID, err := ethereumClient.ResolveChainID(ctx, client, r.cfg.ChainID)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		opts, err = caller.NewKeyedTransactor(privateKeyHex, chainID)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
	}

	cc, err := caller.NewContractCaller(client, &caller.ContractsConfig{ContractAddress: address}, opts, r.logger)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return cc, client.Close, nil
}

func (r *session) output(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	data = append(data, '\n')
	if r.cfg.OutputFile == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(r.cfg.OutputFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	r.logger.Sugar().Infow("Wrote output", "path", r.cfg.OutputFile)
	return nil
}

func runKeygen(c *cli.Context) error {
	r, err := newSession(c)
	if err != nil {
		return err
	}
	id, _, err := r.identity()
	if err != nil {
		return err
	}

	pubPath := c.String(ckcli.PublicKeyFileFlag.Name)
	privPath := c.String(ckcli.PrivateKeyFileFlag.Name)
	if err := crypto.SaveKeyPair(&id.KeyPair, pubPath, privPath); err != nil {
		return err
	}
	r.logger.Sugar().Infow("Derived RSA key pair",
		"address", id.Signer.Address().Hex(),
		"public_key_file", pubPath,
		"private_key_file", privPath)

	return r.output(map[string]string{
		"address":     id.Signer.Address().Hex(),
		"fingerprint": hexutil.Encode(crypto.PublicKeyFingerprint(id.KeyPair.PublicKeyPEM)),
	})
}

func runChunks(c *cli.Context) error {
	r, err := newSession(c)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(c.String(ckcli.PublicKeyFileFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to read public key: %w", err)
	}
	pemKey := string(raw)

	fits, size, err := chainkey.Fits(pemKey)
	if err != nil {
		return err
	}
	var chunks chainkey.ChunkSequence
	if c.Bool(ckcli.StrictFlag.Name) {
		chunks, err = chainkey.ToChunksStrict(pemKey)
	} else {
		chunks, err = chainkey.ToChunks(pemKey)
	}
	if err != nil {
		return err
	}
	if !fits {
		r.logger.Sugar().Warnw("Public key exceeds on-chain capacity and was truncated",
			"der_bytes", size,
			"capacity", chainkey.Capacity)
	}

	return r.output(map[string]interface{}{
		"chunks":      chunks,
		"derBytes":    size,
		"truncated":   !fits,
		"fingerprint": hexutil.Encode(crypto.PublicKeyFingerprint(pemKey)),
	})
}

func runEncrypt(c *cli.Context) error {
	r, err := newSession(c)
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one plaintext argument")
	}
	raw, err := os.ReadFile(c.String(ckcli.PublicKeyFileFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to read public key: %w", err)
	}
	ciphertext, err := crypto.Encrypt([]byte(c.Args().First()), string(raw))
	if err != nil {
		return err
	}
	return r.output(map[string]string{"ciphertext": ciphertext})
}

func runDecrypt(c *cli.Context) error {
	r, err := newSession(c)
	if err != nil {
		return err
	}
	ciphertext := c.String(ckcli.CiphertextFlag.Name)

	var plaintext []byte
	if r.cfg.PrivateKey != "" || r.cfg.Mnemonic != "" {
		id, _, err := r.identity()
		if err != nil {
			return err
		}
		m, err := messaging.NewMessenger(id, nil)
		if err != nil {
			return err
		}
		plaintext, err = m.DecryptMessage(ciphertext)
		if err != nil {
			return err
		}
	} else {
		raw, err := os.ReadFile(c.String(ckcli.PrivateKeyFileFlag.Name))
		if err != nil {
			return fmt.Errorf("failed to read private key: %w", err)
		}
		plaintext, err = crypto.Decrypt(ciphertext, string(raw))
		if err != nil {
			return err
		}
	}
	return r.output(map[string]string{"plaintext": string(plaintext)})
}

func runRegister(c *cli.Context) error {
	r, err := newSession(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	id, keyHex, err := r.identity()
	if err != nil {
		return err
	}

	if fits, size, err := chainkey.Fits(id.KeyPair.PublicKeyPEM); err == nil && !fits {
		r.logger.Sugar().Warnw("Registered chunks hold a truncated key; use the fingerprint to detect the loss",
			"der_bytes", size,
			"capacity", chainkey.Capacity)
	}

	if !r.cfg.OnChain() {
		m, err := messaging.NewMessenger(id, nil)
		if err != nil {
			return err
		}
		reg, err := m.RegisterPublicKey(ctx)
		if err != nil {
			return err
		}
		return r.output(reg)
	}

	cc, closeFn, err := r.contractCaller(ctx, keyHex)
	if err != nil {
		return err
	}
	defer closeFn()

	m, err := messaging.NewMessenger(id, cc)
	if err != nil {
		return err
	}
	reg, err := m.RegisterPublicKey(ctx)
	if err != nil {
		return err
	}
	txHash, err := m.SubmitRegistration(ctx, reg)
	if err != nil {
		return fmt.Errorf("failed to submit registration: %w", err)
	}
	r.logger.Sugar().Infow("Submitted registration", "tx", txHash.Hex(), "address", m.Address().Hex())

	return r.output(map[string]interface{}{
		"registration":    reg,
		"transactionHash": txHash,
	})
}

func runPublish(c *cli.Context) error {
	r, err := newSession(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one plaintext argument")
	}
	recipient, err := parseAddress(c.String(ckcli.RecipientFlag.Name))
	if err != nil {
		return err
	}
	id, keyHex, err := r.identity()
	if err != nil {
		return err
	}

	var cc *caller.ContractCaller
	if r.cfg.OnChain() {
		var closeFn func()
		cc, closeFn, err = r.contractCaller(ctx, keyHex)
		if err != nil {
			return err
		}
		defer closeFn()
	}

	recipientPEM, err := r.recipientKey(ctx, c, cc, recipient)
	if err != nil {
		return err
	}

	var m *messaging.Messenger
	if cc != nil {
		m, err = messaging.NewMessenger(id, cc)
	} else {
		m, err = messaging.NewMessenger(id, nil)
	}
	if err != nil {
		return err
	}

	pub, err := m.PublishMessage(ctx, recipient, recipientPEM, []byte(c.Args().First()))
	if err != nil {
		return err
	}
	if cc == nil {
		return r.output(pub)
	}

	txHash, err := m.SubmitPublication(ctx, pub)
	if err != nil {
		return fmt.Errorf("failed to submit publication: %w", err)
	}
	r.logger.Sugar().Infow("Submitted publication", "tx", txHash.Hex(), "recipient", recipient.Hex())

	return r.output(map[string]interface{}{
		"publication":     pub,
		"transactionHash": txHash,
	})
}

// recipientKey prefers a local PEM file and falls back to the key registered on chain.
func (r *session) recipientKey(ctx context.Context, c *cli.Context, cc *caller.ContractCaller, recipient common.Address) (string, error) {
	if path := c.String(ckcli.RecipientKeyFileFlag.Name); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read recipient key: %w", err)
		}
		return string(raw), nil
	}
	if cc == nil {
		return "", fmt.Errorf("--recipient-key-file is required without --eth-rpc-url and --contract-address")
	}
pemKey, err := messaging.RecipientKeyFromChain(ctx, cc, recipient)
	if errors.Is(err, messaging.ErrRecipientKeyUnusable) {
		return "", fmt.Errorf("%w; pass the recipient's PEM with --recipient-key-file", err)
	}
	return pemKey, err
}

func runPing(c *cli.Context) error {
	r, err := newSession(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	key, err := parseDataKey(c.String(ckcli.KeyFlag.Name))
	if err != nil {
		return err
	}
	id, keyHex, err := r.identity()
	if err != nil {
		return err
	}

	if !r.cfg.OnChain() {
		m, err := messaging.NewMessenger(id, nil)
		if err != nil {
			return err
		}
		ping, err := m.SignPing(ctx, key)
		if err != nil {
			return err
		}
		return r.output(ping)
	}

	cc, closeFn, err := r.contractCaller(ctx, keyHex)
	if err != nil {
		return err
	}
	defer closeFn()

	m, err := messaging.NewMessenger(id, cc)
	if err != nil {
		return err
	}
	ping, txHash, err := m.PingRequest(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to submit ping request: %w", err)
	}
	r.logger.Sugar().Infow("Submitted ping request", "tx", txHash.Hex(), "key", ping.Key.Hex())

	return r.output(map[string]interface{}{
		"ping":            ping,
		"transactionHash": txHash,
	})
}

func runVerify(c *cli.Context) error {
	r, err := newSession(c)
	if err != nil {
		return err
	}
	sender, err := parseAddress(c.String(ckcli.SenderFlag.Name))
	if err != nil {
		return err
	}
	recipient, err := parseAddress(c.String(ckcli.RecipientFlag.Name))
	if err != nil {
		return err
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(c.String(ckcli.SignatureFlag.Name), "0x"))
	if err != nil {
		return fmt.Errorf("invalid signature hex: %w", err)
	}

	valid := messaging.VerifyMessage(sender, recipient, c.String(ckcli.CiphertextFlag.Name), sig)
	r.logger.Sugar().Debugw("Verified message", "sender", sender.Hex(), "valid", valid)
	return r.output(map[string]bool{"valid": valid})
}

func runFetchKey(c *cli.Context) error {
	r, err := newSession(c)
	if err != nil {
		return err
	}
	ctx := c.Context
	owner, err := parseAddress(c.String(ckcli.OwnerFlag.Name))
	if err != nil {
		return err
	}

	cc, closeFn, err := r.contractCaller(ctx, "")
	if err != nil {
		return err
	}
	defer closeFn()

	chunks, err := cc.GetPublicKeyChunks(ctx, owner)
	if err != nil {
		return err
	}
	pemKey, err := chainkey.FromChunks(chunks)
	if err != nil {
		return fmt.Errorf("failed to rebuild key of %s: %w", owner.Hex(), err)
	}
	_, parseErr := crypto.RSAPublicKeyFromPEM([]byte(pemKey))
	if parseErr != nil {
		r.logger.Sugar().Warnw("Registered key is truncated and cannot be used for encryption", "owner", owner.Hex())
	}
	return r.output(map[string]interface{}{
		"owner":        owner,
		"chunks":       chunks,
		"publicKeyPem": pemKey,
		"usable":       parseErr == nil,
	})
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// parseDataKey accepts a 32-byte hex key with or without 0x.
func parseDataKey(s string) ([32]byte, error) {
	var key [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return key, fmt.Errorf("invalid key hex: %w", err)
	}
	if len(raw) != len(key) {
		return key, fmt.Errorf("key must be 32 bytes, got %d", len(raw))
	}
	copy(key[:], raw)
	return key, nil
}
