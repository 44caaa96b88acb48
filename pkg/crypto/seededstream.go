package crypto

import (
	"crypto/sha256"
	"hash"
)

// SeededStream stretches an arbitrary seed into an unbounded deterministic byte stream.
//
// The buffer starts as the seed. When a read needs more bytes than remain, the
// stream appends SHA-256 of everything appended so far (seed || d1 || ... || dk)
// until the read can be served. The stream is therefore seed || d1 || d2 || ...
// no matter how reads are split. It is not a CSPRNG.
type SeededStream struct {
	buf   []byte
	chain hash.Hash
}

// NewSeededStream returns a stream positioned at the start of seed.
func NewSeededStream(seed []byte) (*SeededStream, error) {
	if len(seed) == 0 {
		return nil, ErrSeedEmpty
	}
	s := &SeededStream{
		buf:   append([]byte(nil), seed...),
		chain: sha256.New(),
	}
	_, _ = s.chain.Write(seed)
	return s, nil
}

// Next returns the next n bytes of the stream.
func (s *SeededStream) Next(n int) []byte {
	if n <= 0 {
		return []byte{}
	}
	for len(s.buf) < n {
		digest := s.chain.Sum(nil)
		_, _ = s.chain.Write(digest)
		s.buf = append(s.buf, digest...)
	}
	out := make([]byte, n)
	copy(out, s.buf[:n])
	s.buf = s.buf[n:]
	return out
}

// Read implements io.Reader. It always fills p.
func (s *SeededStream) Read(p []byte) (int, error) {
	copy(p, s.Next(len(p)))
	return len(p), nil
}
