package stream

import (
	"crypto/rand"
	"io"

	"github.com/Crest/nacl-crypt/cryptobox"
)

// HeaderSize is the wire length of a Header: nonce(24) || mac(16) ||
// sealed_key(32).
const HeaderSize = cryptobox.NonceSize + cryptobox.MACSize + cryptobox.KeySize

// Header is the fixed-size preamble of an encrypted stream. It carries a
// CSPRNG nonce and the ephemeral body key k, sealed to the recipient with
// NaCl box under that nonce. Named fields replace the original tool's
// pointer arithmetic into a flat 72-byte buffer.
type Header struct {
	Nonce     [cryptobox.NonceSize]byte
	MAC       [cryptobox.MACSize]byte
	SealedKey [cryptobox.KeySize]byte
}

// NewHeader draws a fresh nonce and a fresh 32-byte body key k from r
// (crypto/rand.Reader if r is nil). The returned Header's MAC and
// SealedKey fields are zero until Seal is called.
func NewHeader(r io.Reader) (Header, [cryptobox.KeySize]byte, error) {
	if r == nil {
		r = rand.Reader
	}
	var h Header
	var k [cryptobox.KeySize]byte
	if _, err := io.ReadFull(r, h.Nonce[:]); err != nil {
		return Header{}, k, newIO("new_header", err)
	}
	if _, err := io.ReadFull(r, k[:]); err != nil {
		return Header{}, k, newIO("new_header", err)
	}
	return h, k, nil
}

// Seal seals k to recipientPK under h.Nonce, authenticated with
// senderSK, and returns a copy of h with MAC and SealedKey populated.
func (h Header) Seal(recipientPK, senderSK *[cryptobox.KeySize]byte, k *[cryptobox.KeySize]byte) (Header, error) {
	pub := cryptobox.PublicKey(*recipientPK)
	priv := cryptobox.PrivateKey(*senderSK)
	sealed := cryptobox.Seal(k[:], &h.Nonce, &pub, &priv)
	if len(sealed) != cryptobox.MACSize+cryptobox.KeySize {
		return Header{}, newCorrupt("seal", "unexpected sealed key length")
	}
	copy(h.MAC[:], sealed[:cryptobox.MACSize])
	copy(h.SealedKey[:], sealed[cryptobox.MACSize:])
	return h, nil
}

// Bytes encodes h as the 72-byte wire form nonce || mac || sealed_key.
func (h Header) Bytes() [HeaderSize]byte {
	var out [HeaderSize]byte
	n := copy(out[:], h.Nonce[:])
	n += copy(out[n:], h.MAC[:])
	copy(out[n:], h.SealedKey[:])
	return out
}

// ParseHeader decodes raw into a Header and unseals the body key k using
// senderPK and recipientSK. A failure means the header is corrupt or the
// key pair is wrong; the caller must reject the stream.
func ParseHeader(raw [HeaderSize]byte, senderPK, recipientSK *[cryptobox.KeySize]byte) (Header, [cryptobox.KeySize]byte, error) {
	var h Header
	var k [cryptobox.KeySize]byte

	n := copy(h.Nonce[:], raw[:cryptobox.NonceSize])
	n2 := copy(h.MAC[:], raw[n:n+cryptobox.MACSize])
	copy(h.SealedKey[:], raw[n+n2:])

	sealed := make([]byte, 0, cryptobox.MACSize+cryptobox.KeySize)
	sealed = append(sealed, h.MAC[:]...)
	sealed = append(sealed, h.SealedKey[:]...)

	pub := cryptobox.PublicKey(*senderPK)
	priv := cryptobox.PrivateKey(*recipientSK)
	opened, ok := cryptobox.Open(sealed, &h.Nonce, &pub, &priv)
	if !ok {
		return Header{}, k, newCrypto("parse_header", "header does not authenticate under the given key pair")
	}
	if len(opened) != cryptobox.KeySize {
		return Header{}, k, newCorrupt("parse_header", "unsealed body key has the wrong length")
	}
	copy(k[:], opened)
	return h, k, nil
}
