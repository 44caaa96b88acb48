package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"
)

const (
	// KeyBits is the only supported RSA modulus size.
	KeyBits = 2048

	publicExponent = 65537

	// Miller-Rabin rounds on top of the Baillie-PSW test done by ProbablyPrime.
	primalityRounds = 20

	// Odd candidates tried from one random starting point before drawing a new one.
	maxPrimeCandidates = 1 << 16
	maxPrimeDraws      = 8
	maxKeyAttempts     = 8

	publicKeyPEMType  = "PUBLIC KEY"
	privateKeyPEMType = "PRIVATE KEY"
)

// KeyPair holds a PEM encoded RSA key pair. The public key is PKIX and the private key PKCS#8.
type KeyPair struct {
	PublicKeyPEM  string `json:"publicKeyPem"`
	PrivateKeyPEM string `json:"privateKeyPem"`
}

// DeriveKeyPair deterministically derives a 2048-bit RSA key pair from seed.
// Every random byte used by the prime search comes from a SeededStream, so the
// same seed always yields byte-identical PEM output.
func DeriveKeyPair(seed []byte) (*KeyPair, error) {
	stream, err := NewSeededStream(seed)
	if err != nil {
		return nil, err
	}

	privateKey, err := GenerateKey(stream)
	if err != nil {
		return nil, err
	}

	return encodeKeyPair(privateKey)
}

// GenerateKey builds an RSA key from the bytes of stream.
//
// crypto/rsa.GenerateKey does not honour caller-supplied randomness, so the
// prime search is done here: draw KeyBits/2 bits, force the two top bits and
// the low bit, then walk odd candidates until one is a probable prime with
// gcd(e, p-1) = 1.
func GenerateKey(stream *SeededStream) (*rsa.PrivateKey, error) {
	e := big.NewInt(publicExponent)
	one := big.NewInt(1)

	for attempt := 0; attempt < maxKeyAttempts; attempt++ {
		p, err := generatePrime(stream, KeyBits/2)
		if err != nil {
			return nil, err
		}
		q, err := generatePrime(stream, KeyBits/2)
		if err != nil {
			return nil, err
		}
		if p.Cmp(q) == 0 {
			continue
		}
		if p.Cmp(q) < 0 {
			p, q = q, p
		}

		n := new(big.Int).Mul(p, q)
		if n.BitLen() != KeyBits {
			continue
		}

		phi := new(big.Int).Mul(new(big.Int).Sub(p, one), new(big.Int).Sub(q, one))
		d := new(big.Int).ModInverse(e, phi)
		if d == nil {
			continue
		}

		key := &rsa.PrivateKey{
			PublicKey: rsa.PublicKey{N: n, E: publicExponent},
			D:         d,
			Primes:    []*big.Int{p, q},
		}
		key.Precompute()
		if err := key.Validate(); err != nil {
			continue
		}
		return key, nil
	}

	return nil, fmt.Errorf("%w: no valid key after %d attempts", ErrKeyGeneration, maxKeyAttempts)
}

func generatePrime(stream *SeededStream, bits int) (*big.Int, error) {
	e := big.NewInt(publicExponent)
	two := big.NewInt(2)
	gcd := new(big.Int)
	pm1 := new(big.Int)

	for draw := 0; draw < maxPrimeDraws; draw++ {
		b := stream.Next(bits / 8)
		b[0] |= 0xc0
		b[len(b)-1] |= 0x01

		p := new(big.Int).SetBytes(b)
		for i := 0; i < maxPrimeCandidates && p.BitLen() == bits; i++ {
			if p.ProbablyPrime(primalityRounds) {
				pm1.Sub(p, big.NewInt(1))
				if gcd.GCD(nil, nil, e, pm1).Cmp(big.NewInt(1)) == 0 {
					return p, nil
				}
			}
			p.Add(p, two)
		}
	}

	return nil, fmt.Errorf("%w: prime search exhausted", ErrKeyGeneration)
}

func encodeKeyPair(privateKey *rsa.PrivateKey) (*KeyPair, error) {
	privateKeyBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	publicKeyBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	return &KeyPair{
		PublicKeyPEM:  string(pem.EncodeToMemory(&pem.Block{Type: publicKeyPEMType, Bytes: publicKeyBytes})),
		PrivateKeyPEM: string(pem.EncodeToMemory(&pem.Block{Type: privateKeyPEMType, Bytes: privateKeyBytes})),
	}, nil
}

// RSAPrivateKeyFromPEM parses a PKCS#8 ("PRIVATE KEY") or PKCS#1 ("RSA PRIVATE KEY") block.
func RSAPrivateKeyFromPEM(privateKeyPEM []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(privateKeyPEM)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode PEM block", ErrInvalidKey)
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		privKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse private key: %v", ErrInvalidKey, err)
		}
		return privKey, nil
	case privateKeyPEMType:
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse private key: %v", ErrInvalidKey, err)
		}
		privKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: private key is not RSA", ErrInvalidKey)
		}
		return privKey, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM type %q", ErrInvalidKey, block.Type)
	}
}

// RSAPublicKeyFromPEM parses a PKIX ("PUBLIC KEY") block holding an RSA key.
func RSAPublicKeyFromPEM(publicKeyPEM []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(publicKeyPEM)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode PEM block", ErrInvalidKey)
	}
	if block.Type != publicKeyPEMType {
		return nil, fmt.Errorf("%w: unexpected PEM type %q", ErrInvalidKey, block.Type)
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse public key: %v", ErrInvalidKey, err)
	}
	pubKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key is not RSA", ErrInvalidKey)
	}
	return pubKey, nil
}
