// Package cryptobox is a thin pass-through to the NaCl box and secretbox
// primitives. It does not add protocol logic of its own; callers (stream,
// cli) decide how nonces are chosen and how keys are named.
package cryptobox

import (
	"crypto/rand"
	"errors"
	"io"
	"runtime"

	"golang.org/x/crypto/nacl/box"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// KeySize is the length, in bytes, of a NaCl box public or private key.
	KeySize = 32

	// NonceSize is the length, in bytes, of a box or secretbox nonce.
	NonceSize = 24

	// MACSize is the length, in bytes, of the Poly1305 authenticator
	// prefixing every box and secretbox ciphertext.
	MACSize = secretbox.Overhead
)

// ErrRandom is returned when the system CSPRNG fails to fill a buffer.
var ErrRandom = errors.New("cryptobox: failed to read random bytes")

// PublicKey and PrivateKey are the two halves of a box key pair.
type PublicKey [KeySize]byte
type PrivateKey [KeySize]byte

// GenerateKeyPair draws a fresh NaCl box key pair from the system CSPRNG.
func GenerateKeyPair() (PublicKey, PrivateKey, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return PublicKey{}, PrivateKey{}, err
	}
	return PublicKey(*pub), PrivateKey(*priv), nil
}

// RandomBytes reads n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, ErrRandom
	}
	return buf, nil
}

// Seal authenticates and encrypts message for recipientPK using senderSK,
// under nonce. The returned ciphertext is message-length + MACSize bytes,
// with the standard library's box.Overhead zero-padding convention already
// stripped off the front.
func Seal(message []byte, nonce *[NonceSize]byte, recipientPK *PublicKey, senderSK *PrivateKey) []byte {
	pk := (*[KeySize]byte)(recipientPK)
	sk := (*[KeySize]byte)(senderSK)
	return box.Seal(nil, message, nonce, pk, sk)
}

// Open authenticates and decrypts a ciphertext produced by Seal. ok is false
// if the MAC does not verify.
func Open(sealed []byte, nonce *[NonceSize]byte, senderPK *PublicKey, recipientSK *PrivateKey) (message []byte, ok bool) {
	pk := (*[KeySize]byte)(senderPK)
	sk := (*[KeySize]byte)(recipientSK)
	return box.Open(nil, sealed, nonce, pk, sk)
}

// SecretSeal authenticates and encrypts message under a shared symmetric
// key, using nonce. The returned ciphertext is message-length + MACSize
// bytes.
func SecretSeal(message []byte, nonce *[NonceSize]byte, key *[KeySize]byte) []byte {
	return secretbox.Seal(nil, message, nonce, key)
}

// SecretOpen authenticates and decrypts a ciphertext produced by
// SecretSeal. ok is false if the MAC does not verify.
func SecretOpen(sealed []byte, nonce *[NonceSize]byte, key *[KeySize]byte) (message []byte, ok bool) {
	return secretbox.Open(nil, sealed, nonce, key)
}

// Wipe overwrites b with zeros. It is used to scrub sensitive key material
// from short-lived buffers once they're no longer needed; callers that keep
// using b after Wipe will see zeros, which is the point.
//
//go:noinline
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
