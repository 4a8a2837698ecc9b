package archive

import (
	"errors"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/claw-migrator/internal/errors"
)

const splitterChunkSize = 32 * 1024

// TagSplitter reads an unbounded stream while always lagging size bytes
// behind it, so the final size bytes (an AEAD tag appended after the
// ciphertext) are never emitted. Once the underlying reader is exhausted,
// Read returns io.EOF and Tag returns the withheld bytes.
type TagSplitter struct {
	r     io.Reader
	size  int
	buf   []byte // buf[off:] is pending
	off   int
	chunk []byte
	tag   []byte
	done  bool
	err   error
}

// NewTagSplitter returns a TagSplitter withholding the last size bytes of r.
func NewTagSplitter(r io.Reader, size int) *TagSplitter {
	return &TagSplitter{r: r, size: size}
}

func (s *TagSplitter) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if n := s.available(); n > 0 {
			n = copy(p, s.buf[s.off:s.off+n])
			s.off += n
			return n, nil
		}
		if s.done {
			return 0, s.err
		}
		s.fill()
	}
}

// Tag returns the trailing bytes once the stream has been read to the end.
func (s *TagSplitter) Tag() ([]byte, error) {
	if !s.done {
		return nil, errors.New("tag is not available before the end of the stream")
	}
	if s.tag == nil {
		return nil, s.err
	}
	return s.tag, nil
}

// available reports how many buffered bytes may be emitted.
func (s *TagSplitter) available() int {
	pending := len(s.buf) - s.off
	if s.done {
		return pending
	}
	if pending > s.size {
		return pending - s.size
	}
	return 0
}

func (s *TagSplitter) fill() {
	if s.chunk == nil {
		s.chunk = make([]byte, splitterChunkSize)
	}

	// Move the withheld bytes to the front so append reuses buf.
	if s.off > 0 {
		kept := copy(s.buf, s.buf[s.off:])
		s.buf = s.buf[:kept]
		s.off = 0
	}

	n, err := s.r.Read(s.chunk)
	s.buf = append(s.buf, s.chunk[:n]...)

	switch {
	case err == io.EOF:
		s.done = true
		if len(s.buf) < s.size {
			s.buf = nil
			s.err = &kerrors.FormatError{Reason: fmt.Sprintf("stream ended before the %d-byte trailer", s.size)}
			return
		}
		cut := len(s.buf) - s.size
		s.tag = make([]byte, s.size)
		copy(s.tag, s.buf[cut:])
		s.buf = s.buf[:cut]
		s.err = io.EOF
	case err != nil:
		s.done = true
		s.buf = nil
		s.err = err
	}
}
