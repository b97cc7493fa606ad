package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	goerrors "github.com/agilira/go-errors"

	"github.com/Crest/nacl-crypt/cryptobox"
	"github.com/Crest/nacl-crypt/hexkey"
	"github.com/Crest/nacl-crypt/keyring"
	"github.com/Crest/nacl-crypt/stream"
)

// Exit codes from spec.md §7.
const (
	ExitOK          = 0
	ExitNotFound    = 1
	ExitUsage       = 64
	ExitConflict    = 65
	ExitBadInput    = 66
	ExitInternal    = 70
	ExitIO          = 74
	ExitUnavailable = 75
	ExitCorrupt     = 76
)

// Dispatch executes cmd against store and returns the process exit code.
// It turns an operation's error into an exit code with ExitCodeForError,
// which cmd/nenc also calls when keyring.Open fails before Dispatch runs.
func Dispatch(cmd *Command, store *keyring.Store, stdin io.Reader, stdout, stderr io.Writer) int {
	var err error
	switch cmd.Op {
	case OpGenerate:
		err = doGenerate(cmd, store, stdout, stderr)
	case OpExport:
		err = doExport(cmd, store, stdout, stderr)
	case OpImport:
		err = doImport(cmd, store, stdin, stderr)
	case OpDelete:
		err = doDelete(cmd, store, stderr)
	case OpList:
		err = doList(cmd, store, stdout, stderr)
	case OpEncrypt:
		err = doEncrypt(cmd, store, stdin, stdout, stderr)
	case OpDecrypt:
		err = doDecrypt(cmd, store, stdin, stdout, stderr)
	default:
		fmt.Fprintln(stderr, "nenc: unsupported operation")
		return ExitUsage
	}
	if err == nil {
		return ExitOK
	}
	fmt.Fprintln(stderr, err)
	return ExitCodeForError(err)
}

// ExitCodeForError maps a keyring/stream/cli error to the process exit
// code it corresponds to in spec.md §7. cmd/nenc/main.go also uses this
// for the keyring.Open failure path, which happens before Dispatch runs.
func ExitCodeForError(err error) int {
	if _, ok := err.(*badInputError); ok {
		return ExitBadInput
	}
	if goerrors.HasCode(err, keyring.CodeLocked) || goerrors.HasCode(err, keyring.CodeBusy) {
		return ExitUnavailable
	}
	if goerrors.HasCode(err, keyring.CodeNotFound) {
		return ExitNotFound
	}
	if goerrors.HasCode(err, keyring.CodeConflict) {
		return ExitConflict
	}
	if goerrors.HasCode(err, stream.CodeCorrupt) || goerrors.HasCode(err, stream.CodeCrypto) {
		return ExitCorrupt
	}
	if goerrors.HasCode(err, stream.CodeIO) {
		return ExitIO
	}
	return ExitInternal
}

type badInputError struct{ msg string }

func (e *badInputError) Error() string { return e.msg }

func doGenerate(cmd *Command, store *keyring.Store, stdout, stderr io.Writer) error {
	pub, priv, err := cryptobox.GenerateKeyPair()
	if err != nil {
		return err
	}
	storeFn := store.SetPair
	if cmd.Force {
		storeFn = store.PutPair
	}
	if _, err := storeFn(cmd.Name, [cryptobox.KeySize]byte(pub), [cryptobox.KeySize]byte(priv)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "generated key pair named %q\n", cmd.Name)
	return nil
}

func doExport(cmd *Command, store *keyring.Store, stdout, stderr io.Writer) error {
	var pubHex, privHex string
	if cmd.UsePublic {
		pub, err := store.GetPublic(cmd.Name)
		if err != nil {
			return err
		}
		pubHex = hexkey.Encode(*pub)
	}
	if cmd.UsePrivate {
		priv, err := store.GetPrivate(cmd.Name)
		if err != nil {
			return err
		}
		privHex = hexkey.Encode(*priv)
	}
	if cmd.UsePublic {
		fmt.Fprintf(stdout, "p:%s\n", pubHex)
	}
	if cmd.UsePrivate {
		fmt.Fprintf(stdout, "P:%s\n", privHex)
	}
	return nil
}

func doImport(cmd *Command, store *keyring.Store, stdin io.Reader, stderr io.Writer) error {
	var pub, priv [cryptobox.KeySize]byte
	in := bufio.NewReader(stdin)
	if cmd.UsePublic {
		line, err := readTaggedLine(in, 'p', 2*hexkey.KeySize)
		if err != nil {
			return err
		}
		pub, err = hexkey.Decode(line)
		if err != nil {
			return &badInputError{msg: "nenc: malformed public key line: " + err.Error()}
		}
	}
	if cmd.UsePrivate {
		line, err := readTaggedLine(in, 'P', 2*hexkey.KeySize)
		if err != nil {
			return err
		}
		priv, err = hexkey.Decode(line)
		if err != nil {
			return &badInputError{msg: "nenc: malformed private key line: " + err.Error()}
		}
	}

	switch {
	case cmd.UsePublic && cmd.UsePrivate:
		if cmd.Force {
			_, err := store.PutPair(cmd.Name, pub, priv)
			return err
		}
		_, err := store.SetPair(cmd.Name, pub, priv)
		return err
	case cmd.UsePublic:
		if cmd.Force {
			_, err := store.PutPublic(cmd.Name, pub)
			return err
		}
		_, err := store.SetPublic(cmd.Name, pub)
		return err
	case cmd.UsePrivate:
		if cmd.Force {
			_, err := store.PutPrivate(cmd.Name, priv)
			return err
		}
		_, err := store.SetPrivate(cmd.Name, priv)
		return err
	}
	return nil
}

// readTaggedLine reads one "<tag>:<hex>\n" line from r and returns the
// hex payload, requiring the tag to match want and the payload to be
// exactly wantLen characters.
func readTaggedLine(r *bufio.Reader, want byte, wantLen int) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", &badInputError{msg: "nenc: failed to read key line: " + err.Error()}
	}
	line = strings.TrimRight(line, "\r\n")
	if len(line) < 2 || line[0] != want || line[1] != ':' {
		return "", &badInputError{msg: fmt.Sprintf("nenc: expected a line starting with %q", string(want)+":")}
	}
	payload := line[2:]
	if len(payload) != wantLen {
		return "", &badInputError{msg: fmt.Sprintf("nenc: expected %d hex characters, got %d", wantLen, len(payload))}
	}
	return payload, nil
}

func doDelete(cmd *Command, store *keyring.Store, stderr io.Writer) error {
	var result keyring.DeleteResult
	var err error
	switch {
	case cmd.UsePublic && cmd.UsePrivate:
		result, err = store.DeletePair(cmd.Name, cmd.Force)
	case cmd.UsePublic:
		result, err = store.DeletePublic(cmd.Name, cmd.Force)
	case cmd.UsePrivate:
		result, err = store.DeletePrivate(cmd.Name, cmd.Force)
	}
	if err != nil {
		return err
	}
	// A requested half that wasn't actually deleted (because it never
	// existed) is a miss, per-half, even if the other requested half
	// was deleted successfully.
	missing := (cmd.UsePublic && !result.PublicDeleted) || (cmd.UsePrivate && !result.PrivateDeleted)
	if missing && !cmd.Force {
		return keyringNotFound(cmd.Name)
	}
	return nil
}

func keyringNotFound(name string) error {
	return goerrors.NewWithField(keyring.CodeNotFound, fmt.Sprintf("nenc: no key named %q to delete", name), "name", name)
}

func doList(cmd *Command, store *keyring.Store, stdout, stderr io.Writer) error {
	return store.List(func(name string, pair keyring.Pair) bool {
		switch {
		case cmd.UsePublic && cmd.UsePrivate:
			fmt.Fprintf(stdout, "%s\t%s\t%s\n", name, halfOrUnderscores(pair.Public), halfOrUnderscores(pair.Private))
		case cmd.UsePublic:
			fmt.Fprintf(stdout, "%s\t%s\n", name, halfOrUnderscores(pair.Public))
		case cmd.UsePrivate:
			fmt.Fprintf(stdout, "%s\t%s\n", name, halfOrUnderscores(pair.Private))
		default:
			fmt.Fprintf(stdout, "%s\n", name)
		}
		return true
	})
}

func halfOrUnderscores(k *[32]byte) string {
	if k == nil {
		return underscores(2 * hexkey.KeySize)
	}
	return hexkey.Encode(*k)
}

func underscores(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '_'
	}
	return string(b)
}

func doEncrypt(cmd *Command, store *keyring.Store, stdin io.Reader, stdout, stderr io.Writer) error {
	senderPriv, err := store.GetPrivate(cmd.Source)
	if err != nil {
		return err
	}
	recipientPub, err := store.GetPublic(cmd.Target)
	if err != nil {
		return err
	}
	return stream.Encrypt(stdout, stdin, senderPriv, recipientPub)
}

func doDecrypt(cmd *Command, store *keyring.Store, stdin io.Reader, stdout, stderr io.Writer) error {
	recipientPriv, err := store.GetPrivate(cmd.Target)
	if err != nil {
		return err
	}
	senderPub, err := store.GetPublic(cmd.Source)
	if err != nil {
		return err
	}
	return stream.Decrypt(stdout, stdin, recipientPriv, senderPub)
}
