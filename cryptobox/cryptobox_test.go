package cryptobox

import (
	"bytes"
	"testing"
)

func TestGenerateKeyPairDistinct(t *testing.T) {
	pub1, priv1, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	pub2, priv2, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	if pub1 == pub2 {
		t.Error("two generated public keys were identical")
	}
	if priv1 == priv2 {
		t.Error("two generated private keys were identical")
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	senderPub, senderPriv, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	recipientPub, recipientPriv, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	var nonce [NonceSize]byte
	message := []byte("the quick brown fox jumps over the lazy dog")

	sealed := Seal(message, &nonce, &recipientPub, &senderPriv)
	if len(sealed) != len(message)+MACSize {
		t.Fatalf("sealed length = %d, want %d", len(sealed), len(message)+MACSize)
	}

	opened, ok := Open(sealed, &nonce, &senderPub, &recipientPriv)
	if !ok {
		t.Fatal("Open returned ok=false for a valid box")
	}
	if !bytes.Equal(opened, message) {
		t.Errorf("opened = %q, want %q", opened, message)
	}
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	senderPub, senderPriv, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	recipientPub, recipientPriv, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	var nonce [NonceSize]byte
	sealed := Seal([]byte("payload"), &nonce, &recipientPub, &senderPriv)
	sealed[0] ^= 0xff

	if _, ok := Open(sealed, &nonce, &senderPub, &recipientPriv); ok {
		t.Error("Open accepted a tampered box")
	}
}

func TestOpenRejectsWrongKey(t *testing.T) {
	senderPub, senderPriv, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	recipientPub, _, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	_, wrongPriv, err := GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	var nonce [NonceSize]byte
	sealed := Seal([]byte("payload"), &nonce, &recipientPub, &senderPriv)

	if _, ok := Open(sealed, &nonce, &senderPub, &wrongPriv); ok {
		t.Error("Open accepted a box decrypted with the wrong private key")
	}
}

func TestSecretSealOpenRoundTrip(t *testing.T) {
	key, err := RandomBytes(KeySize)
	if err != nil {
		t.Fatal(err)
	}
	var k [KeySize]byte
	copy(k[:], key)

	var nonce [NonceSize]byte
	message := []byte("secretbox round trip")

	sealed := SecretSeal(message, &nonce, &k)
	opened, ok := SecretOpen(sealed, &nonce, &k)
	if !ok {
		t.Fatal("SecretOpen returned ok=false for a valid box")
	}
	if !bytes.Equal(opened, message) {
		t.Errorf("opened = %q, want %q", opened, message)
	}
}

func TestSecretOpenRejectsTamperedMAC(t *testing.T) {
	key, err := RandomBytes(KeySize)
	if err != nil {
		t.Fatal(err)
	}
	var k [KeySize]byte
	copy(k[:], key)

	var nonce [NonceSize]byte
	sealed := SecretSeal([]byte("payload"), &nonce, &k)
	sealed[0] ^= 0xff

	if _, ok := SecretOpen(sealed, &nonce, &k); ok {
		t.Error("SecretOpen accepted a box with a tampered MAC")
	}
}

func TestRandomBytesLength(t *testing.T) {
	b, err := RandomBytes(40)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 40 {
		t.Errorf("len(b) = %d, want 40", len(b))
	}
}

func TestWipe(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5}
	Wipe(b)
	for i, v := range b {
		if v != 0 {
			t.Errorf("b[%d] = %d, want 0", i, v)
		}
	}
}
