package stream

import (
	"io"
	"math"

	"github.com/Crest/nacl-crypt/cryptobox"
	"github.com/sec51/convert/bigendian"
)

// BlockSize is the fixed number of plaintext bytes per chunk.
const BlockSize = 131072

func counterNonce(counter uint64) [cryptobox.NonceSize]byte {
	var nonce [cryptobox.NonceSize]byte
	b := bigendian.ToUint64(counter)
	copy(nonce[:], b[:])
	return nonce
}

// Encryptor writes secretbox-sealed chunks of at most BlockSize plaintext
// bytes to an underlying io.Writer, under key and a counter nonce that
// starts at zero and increments once per chunk. Close must be called to
// flush the final (possibly empty) chunk.
type Encryptor struct {
	w         io.Writer
	key       [cryptobox.KeySize]byte
	counter   uint64
	buf       []byte
	closed    bool
	exhausted bool
}

// NewEncryptor returns an Encryptor writing to w under key.
func NewEncryptor(w io.Writer, key [cryptobox.KeySize]byte) *Encryptor {
	return &Encryptor{w: w, key: key, buf: make([]byte, 0, BlockSize)}
}

// Write buffers p and flushes full BlockSize chunks as they accumulate.
func (e *Encryptor) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		space := BlockSize - len(e.buf)
		n := copy(e.buf[len(e.buf):cap(e.buf)], p[:min(space, len(p))])
		e.buf = e.buf[:len(e.buf)+n]
		p = p[n:]
		if len(e.buf) == BlockSize {
			if err := e.flushChunk(); err != nil {
				return total - len(p), err
			}
		}
	}
	return total, nil
}

func (e *Encryptor) flushChunk() error {
	if err := e.emit(e.buf); err != nil {
		return err
	}
	e.buf = e.buf[:0]
	return nil
}

func (e *Encryptor) emit(chunk []byte) error {
	if e.exhausted {
		return newCorrupt("encrypt", "stream exceeds the maximum number of chunks")
	}
	nonce := counterNonce(e.counter)
	sealed := cryptobox.SecretSeal(chunk, &nonce, &e.key)
	if _, err := e.w.Write(sealed); err != nil {
		return newIO("encrypt", err)
	}
	if e.counter == math.MaxUint64 {
		e.exhausted = true
	} else {
		e.counter++
	}
	return nil
}

// Close flushes the final, possibly short or empty, chunk.
func (e *Encryptor) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.emit(e.buf)
}

// Decryptor reads secretbox-sealed chunks from an underlying io.Reader
// and returns verified plaintext. A MAC failure on any chunk aborts the
// stream; no plaintext from that chunk is ever returned.
type Decryptor struct {
	r       io.Reader
	key     [cryptobox.KeySize]byte
	counter uint64
	pending []byte
	done    bool
	raw     []byte
}

// NewDecryptor returns a Decryptor reading from r under key.
func NewDecryptor(r io.Reader, key [cryptobox.KeySize]byte) *Decryptor {
	return &Decryptor{r: r, key: key, raw: make([]byte, BlockSize+cryptobox.MACSize)}
}

// Read returns decrypted plaintext, reading and authenticating chunks
// from the underlying reader as needed.
func (d *Decryptor) Read(p []byte) (int, error) {
	for len(d.pending) == 0 {
		if d.done {
			return 0, io.EOF
		}
		chunk, err := d.readChunk()
		if err != nil {
			return 0, err
		}
		d.pending = chunk
		if len(chunk) < BlockSize {
			d.done = true
		}
	}
	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

func (d *Decryptor) readChunk() ([]byte, error) {
	n, err := io.ReadFull(d.r, d.raw)
	switch {
	case err == nil:
		// full chunk, fall through
	case err == io.EOF:
		// A clean EOF here means the reader ran dry exactly on a chunk
		// boundary with no terminating short/empty chunk: every valid
		// stream ends through the ErrUnexpectedEOF path below, so this
		// is always a truncated stream (including a header with no
		// chunks at all).
		return nil, newCorrupt("decrypt", "stream is missing its terminating chunk")
	case err == io.ErrUnexpectedEOF:
		if n < cryptobox.MACSize {
			return nil, newCorrupt("decrypt", "truncated chunk shorter than the MAC prefix")
		}
		// short final chunk, read exactly n bytes below
	default:
		return nil, newIO("decrypt", err)
	}

	raw := d.raw[:n]
	nonce := counterNonce(d.counter)
	plain, ok := cryptobox.SecretOpen(raw, &nonce, &d.key)
	if !ok {
		return nil, newCorrupt("decrypt", "chunk failed MAC verification")
	}
	d.counter++
	return plain, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
