package stream

import (
	"testing"

	"github.com/Crest/nacl-crypt/cryptobox"
)

// FuzzParseHeader supersedes the teacher's go-fuzz-style Fuzz(data []byte)
// int harness (originally aimed at MessageFromBytes) with the stdlib
// fuzzing support, aimed at the header parser: the first 72 bytes of any
// file nenc is asked to decrypt are attacker-controlled.
func FuzzParseHeader(f *testing.F) {
	senderPub, senderPriv, err := cryptobox.GenerateKeyPair()
	if err != nil {
		f.Fatal(err)
	}
	recipientPub, recipientPriv, err := cryptobox.GenerateKeyPair()
	if err != nil {
		f.Fatal(err)
	}

	spub := [cryptobox.KeySize]byte(senderPub)
	spriv := [cryptobox.KeySize]byte(senderPriv)
	rpub := [cryptobox.KeySize]byte(recipientPub)
	rpriv := [cryptobox.KeySize]byte(recipientPriv)

	h, k, err := NewHeader(nil)
	if err != nil {
		f.Fatal(err)
	}
	sealed, err := h.Seal(&rpub, &spriv, &k)
	if err != nil {
		f.Fatal(err)
	}
	raw := sealed.Bytes()
	f.Add(raw[:])
	f.Add(make([]byte, HeaderSize))
	f.Add(make([]byte, 0))

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) != HeaderSize {
			return
		}
		var buf [HeaderSize]byte
		copy(buf[:], data)
		// Must never panic, regardless of how buf was mangled.
		ParseHeader(buf, &spub, &rpriv)
	})
}
