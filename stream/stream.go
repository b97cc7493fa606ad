package stream

import (
	"io"

	"github.com/Crest/nacl-crypt/cryptobox"
)

// Encrypt reads all of r, builds a header sealing a fresh body key to
// recipientPK, and writes the header followed by the chunked, encrypted
// body to w. senderSK authenticates the header.
func Encrypt(w io.Writer, r io.Reader, senderSK, recipientPK *[cryptobox.KeySize]byte) error {
	h, k, err := NewHeader(nil)
	if err != nil {
		return err
	}
	h, err = h.Seal(recipientPK, senderSK, &k)
	if err != nil {
		cryptobox.Wipe(k[:])
		return err
	}

	raw := h.Bytes()
	if _, err := w.Write(raw[:]); err != nil {
		cryptobox.Wipe(k[:])
		return newIO("encrypt", err)
	}

	enc := NewEncryptor(w, k)
	cryptobox.Wipe(k[:])
	if _, err := io.Copy(enc, r); err != nil {
		return classifyCopyErr(err)
	}
	return enc.Close()
}

// Decrypt reads a header from r, unseals the body key using senderPK and
// recipientSK, and writes the decrypted, authenticated body to w.
func Decrypt(w io.Writer, r io.Reader, recipientSK, senderPK *[cryptobox.KeySize]byte) error {
	var raw [HeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return newCorrupt("decrypt", "stream is shorter than the header")
		}
		return newIO("decrypt", err)
	}

	_, k, err := ParseHeader(raw, senderPK, recipientSK)
	if err != nil {
		return err
	}

	dec := NewDecryptor(r, k)
	cryptobox.Wipe(k[:])
	_, err = io.Copy(w, dec)
	if err != nil {
		return classifyCopyErr(err)
	}
	return nil
}

func classifyCopyErr(err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return newIO("copy", err)
}
