// Command nenc is a personal keyring and authenticated file-encryption
// tool built on NaCl box and secretbox. See SPEC_FULL.md for the full
// command surface.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Crest/nacl-crypt/cli"
	"github.com/Crest/nacl-crypt/keyring"
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd, err := cli.Parse(os.Args[1:], os.Getenv)
	if err != nil {
		if uerr, ok := err.(*cli.UsageError); ok {
			fmt.Fprint(os.Stderr, uerr.Usage)
			if uerr.Msg != "" {
				fmt.Fprintf(os.Stderr, "nenc: %s\n", uerr.Msg)
			}
		} else {
			fmt.Fprintf(os.Stderr, "nenc: %v\n", err)
		}
		return cli.ExitUsage
	}

	store, err := keyring.Open(cmd.DBPath)
	if err != nil {
		log.Printf("nenc: failed to open keyring at %q: %v", cmd.DBPath, err)
		return cli.ExitCodeForError(err)
	}
	defer store.Close()

	return cli.Dispatch(cmd, store, os.Stdin, os.Stdout, os.Stderr)
}
