// Package chainkey packs an RSA public key PEM into the fixed bytes32[4] slot
// used for on-chain key storage, and rebuilds PEM text from that slot.
//
// The slot holds 128 bytes of DER. A 2048-bit RSA public key is 294 bytes of
// DER, so ToChunks keeps only the leading 128 bytes and FromChunks returns a
// truncated key. Use ToChunksStrict where truncation must be an error.
package chainkey

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// ChunkSize is the byte width of one bytes32 slot.
	ChunkSize = 32
	// MaxChunks is the number of slots reserved for a key on chain.
	MaxChunks = 4
	// Capacity is the number of raw key bytes the slots can hold.
	Capacity = ChunkSize * MaxChunks

	pemHeader    = "-----BEGIN PUBLIC KEY-----"
	pemFooter    = "-----END PUBLIC KEY-----"
	pemLineWidth = 64

	chunkHexLen = ChunkSize * 2
)

var (
	ErrInvalidPEM    = errors.New("invalid public key PEM")
	ErrInvalidChunk  = errors.New("invalid chunk")
	ErrChunkOverflow = errors.New("public key exceeds on-chain chunk capacity")
)

// Chunk is a bytes32 value rendered as 0x followed by 64 lowercase hex digits.
type Chunk string

// ChunkSequence is at most MaxChunks chunks, zero padded on the right in the last one.
type ChunkSequence []Chunk

// Bytes32 converts the sequence to the fixed array form expected by the contract ABI.
// Missing trailing slots are zero.
func (cs ChunkSequence) Bytes32() ([MaxChunks][ChunkSize]byte, error) {
	var out [MaxChunks][ChunkSize]byte
	if len(cs) > MaxChunks {
		return out, fmt.Errorf("%w: %d chunks exceeds %d", ErrInvalidChunk, len(cs), MaxChunks)
	}
	for i, c := range cs {
		raw, err := c.decode()
		if err != nil {
			return out, err
		}
		copy(out[i][:], raw)
	}
	return out, nil
}

// FromBytes32 renders contract slots as a ChunkSequence.
func FromBytes32(slots [MaxChunks][ChunkSize]byte) ChunkSequence {
	cs := make(ChunkSequence, 0, MaxChunks)
	for _, s := range slots {
		cs = append(cs, Chunk("0x"+hex.EncodeToString(s[:])))
	}
	return cs
}

func (c Chunk) decode() ([]byte, error) {
	s := string(c)
	if !strings.HasPrefix(s, "0x") || len(s) != 2+chunkHexLen {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChunk, s)
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChunk, err)
	}
	return raw, nil
}

// ToChunks splits the DER body of publicKeyPEM into bytes32 chunks.
// Bytes beyond Capacity are dropped.
func ToChunks(publicKeyPEM string) (ChunkSequence, error) {
	raw, err := pemBody(publicKeyPEM)
	if err != nil {
		return nil, err
	}
	return chunk(raw), nil
}

// ToChunksStrict is ToChunks but fails with ErrChunkOverflow instead of truncating.
func ToChunksStrict(publicKeyPEM string) (ChunkSequence, error) {
	raw, err := pemBody(publicKeyPEM)
	if err != nil {
		return nil, err
	}
	if len(raw) > Capacity {
		return nil, fmt.Errorf("%w: %d bytes, capacity %d", ErrChunkOverflow, len(raw), Capacity)
	}
	return chunk(raw), nil
}

// Fits reports whether publicKeyPEM survives a ToChunks/FromChunks round trip
// without truncation, and how many raw bytes it holds.
func Fits(publicKeyPEM string) (bool, int, error) {
	raw, err := pemBody(publicKeyPEM)
	if err != nil {
		return false, 0, err
	}
	return len(raw) <= Capacity, len(raw), nil
}

// FromChunks rebuilds PEM text from a ChunkSequence.
//
// Trailing '0' hex digits are stripped to undo the padding, which also strips
// genuine trailing zero nibbles of the key. A dangling odd nibble is dropped.
// All-zero slots, as returned for an unregistered owner, are ErrInvalidChunk.
func FromChunks(chunks ChunkSequence) (string, error) {
	var sb strings.Builder
	for _, c := range chunks {
		s := string(c)
		if !strings.HasPrefix(s, "0x") {
			return "", fmt.Errorf("%w: missing 0x prefix in %q", ErrInvalidChunk, s)
		}
		sb.WriteString(s[2:])
	}

	hexString := strings.TrimRight(sb.String(), "0")
	if len(hexString) < 2 {
		return "", fmt.Errorf("%w: no key registered", ErrInvalidChunk)
	}
	if len(hexString)%2 != 0 {
		hexString = hexString[:len(hexString)-1]
	}
	raw, err := hex.DecodeString(hexString)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidChunk, err)
	}

	return encodePEM(raw), nil
}

func pemBody(publicKeyPEM string) ([]byte, error) {
	if !strings.Contains(publicKeyPEM, pemHeader) || !strings.Contains(publicKeyPEM, pemFooter) {
		return nil, fmt.Errorf("%w: missing PUBLIC KEY markers", ErrInvalidPEM)
	}
	body := strings.Replace(publicKeyPEM, pemHeader, "", 1)
	body = strings.Replace(body, pemFooter, "", 1)
	body = strings.NewReplacer("\n", "", "\r", "").Replace(body)
	body = strings.TrimSpace(body)

	raw, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPEM, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidPEM)
	}
	return raw, nil
}

func chunk(raw []byte) ChunkSequence {
	hexString := hex.EncodeToString(raw)

	chunks := make(ChunkSequence, 0, MaxChunks)
	for i := 0; i < len(hexString) && len(chunks) < MaxChunks; i += chunkHexLen {
		end := min(i+chunkHexLen, len(hexString))
		part := hexString[i:end] + strings.Repeat("0", chunkHexLen-(end-i))
		chunks = append(chunks, Chunk("0x"+part))
	}
	return chunks
}

func encodePEM(raw []byte) string {
	b64 := base64.StdEncoding.EncodeToString(raw)

	var sb strings.Builder
	sb.WriteString(pemHeader)
	sb.WriteByte('\n')
	for i := 0; i < len(b64); i += pemLineWidth {
		sb.WriteString(b64[i:min(i+pemLineWidth, len(b64))])
		sb.WriteByte('\n')
	}
	sb.WriteString(pemFooter)
	sb.WriteByte('\n')
	return sb.String()
}
