package archive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
)

// The standard library only offers one-shot GCM, which would require the
// whole payload in memory. gcmStream computes the identical construction
// (NIST SP 800-38D, 96-bit IV, no additional data) incrementally, so
// archives stay byte-compatible with cipher.NewGCM output while streaming.

const gcmBlockSize = 16

// maxPayloadSize is the GCM plaintext limit of 2^39-256 bits.
const maxPayloadSize = (1<<39 - 256) / 8

type fieldElement struct {
	hi, lo uint64
}

type gcmStream struct {
	block cipher.Block
	h     fieldElement
	y     fieldElement

	pending  [gcmBlockSize]byte
	npending int
	length   uint64

	counter   [gcmBlockSize]byte
	keystream [gcmBlockSize]byte
	used      int

	tagMask [gcmBlockSize]byte
}

func newGCMStream(key, iv []byte) (*gcmStream, error) {
	if len(iv) != IVSize {
		return nil, fmt.Errorf("gcm: iv must be %d bytes, got %d", IVSize, len(iv))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}

	s := &gcmStream{block: block, used: gcmBlockSize}

	var hashKey [gcmBlockSize]byte
	block.Encrypt(hashKey[:], hashKey[:])
	s.h = loadElement(hashKey[:])

	// J0 = IV || 0^31 || 1; E(J0) masks the final GHASH value.
	copy(s.counter[:], iv)
	s.counter[gcmBlockSize-1] = 1
	block.Encrypt(s.tagMask[:], s.counter[:])

	return s, nil
}

// xorKeyStream applies the GCTR keystream, starting at inc32(J0).
func (s *gcmStream) xorKeyStream(dst, src []byte) {
	for i := range src {
		if s.used == gcmBlockSize {
			ctr := binary.BigEndian.Uint32(s.counter[12:])
			binary.BigEndian.PutUint32(s.counter[12:], ctr+1)
			s.block.Encrypt(s.keystream[:], s.counter[:])
			s.used = 0
		}
		dst[i] = src[i] ^ s.keystream[s.used]
		s.used++
	}
}

// absorb feeds ciphertext into GHASH.
func (s *gcmStream) absorb(ciphertext []byte) {
	s.length += uint64(len(ciphertext))
	for len(ciphertext) > 0 {
		n := copy(s.pending[s.npending:], ciphertext)
		s.npending += n
		ciphertext = ciphertext[n:]
		if s.npending == gcmBlockSize {
			s.hashBlock(s.pending[:])
			s.npending = 0
		}
	}
}

func (s *gcmStream) hashBlock(b []byte) {
	s.y.hi ^= binary.BigEndian.Uint64(b[:8])
	s.y.lo ^= binary.BigEndian.Uint64(b[8:])
	s.y = gfMul(s.y, s.h)
}

// sum finalizes GHASH and returns the authentication tag. The stream must
// not be used afterwards.
func (s *gcmStream) sum() []byte {
	if s.npending > 0 {
		for i := s.npending; i < gcmBlockSize; i++ {
			s.pending[i] = 0
		}
		s.hashBlock(s.pending[:])
		s.npending = 0
	}

	var lengths [gcmBlockSize]byte
	binary.BigEndian.PutUint64(lengths[8:], s.length*8)
	s.hashBlock(lengths[:])

	tag := make([]byte, TagSize)
	binary.BigEndian.PutUint64(tag[:8], s.y.hi)
	binary.BigEndian.PutUint64(tag[8:], s.y.lo)
	subtle.XORBytes(tag, tag, s.tagMask[:])
	return tag
}

func loadElement(b []byte) fieldElement {
	return fieldElement{
		hi: binary.BigEndian.Uint64(b[:8]),
		lo: binary.BigEndian.Uint64(b[8:]),
	}
}

// gfMul multiplies in GF(2^128) using GCM's reflected bit order.
func gfMul(x, y fieldElement) fieldElement {
	var z fieldElement
	v := y
	for i := 0; i < 128; i++ {
		var bit uint64
		if i < 64 {
			bit = (x.hi >> (63 - i)) & 1
		} else {
			bit = (x.lo >> (127 - i)) & 1
		}
		mask := -bit
		z.hi ^= v.hi & mask
		z.lo ^= v.lo & mask

		lsb := v.lo & 1
		v.lo = v.lo>>1 | v.hi<<63
		v.hi >>= 1
		v.hi ^= 0xe100000000000000 & -lsb
	}
	return z
}

// sealWriter encrypts everything written to it into w. The tag is not
// written; the caller appends the result of Tag after the last Write.
type sealWriter struct {
	stream *gcmStream
	w      io.Writer
	buf    []byte
	sealed bool
}

func newSealWriter(stream *gcmStream, w io.Writer) *sealWriter {
	return &sealWriter{stream: stream, w: w}
}

func (sw *sealWriter) Write(p []byte) (int, error) {
	if sw.sealed {
		return 0, fmt.Errorf("gcm: write after tag was produced")
	}
	if sw.stream.length+uint64(len(p)) > maxPayloadSize {
		return 0, fmt.Errorf("gcm: payload exceeds %d bytes", uint64(maxPayloadSize))
	}

	written := 0
	for len(p) > 0 {
		n := len(p)
		if n > splitterChunkSize {
			n = splitterChunkSize
		}
		if cap(sw.buf) < n {
			sw.buf = make([]byte, splitterChunkSize)
		}
		out := sw.buf[:n]
		sw.stream.xorKeyStream(out, p[:n])
		sw.stream.absorb(out)
		if _, err := sw.w.Write(out); err != nil {
			return written, err
		}
		written += n
		p = p[n:]
	}
	return written, nil
}

// Tag finalizes the stream and returns the authentication tag.
func (sw *sealWriter) Tag() []byte {
	sw.sealed = true
	return sw.stream.sum()
}

// openReader decrypts ciphertext from a TagSplitter. It only returns io.EOF
// after the trailing tag has been verified; a mismatch is reported as an
// AuthenticationError, and every later Read repeats the terminal error.
type openReader struct {
	src    *TagSplitter
	stream *gcmStream
	err    error
}

func newOpenReader(stream *gcmStream, src *TagSplitter) *openReader {
	return &openReader{src: src, stream: stream}
}

func (r *openReader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}

	n, err := r.src.Read(p)
	if n > 0 {
		r.stream.absorb(p[:n])
		r.stream.xorKeyStream(p[:n], p[:n])
	}

	switch {
	case err == io.EOF:
		r.err = r.verify()
		return n, r.err
	case err != nil:
		r.err = err
		return n, err
	}
	return n, nil
}

func (r *openReader) verify() error {
	tag, err := r.src.Tag()
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(r.stream.sum(), tag) != 1 {
		return &kerrors.AuthenticationError{}
	}
	return io.EOF
}
