// Package cli implements the nenc command-line surface: flag parsing,
// operation dispatch, and the mapping from keyring/stream errors to the
// process exit codes in spec.md §7.
package cli

import (
	"flag"
	"fmt"
	"io"
)

// Op identifies which operation a Command requests. Exactly one must be
// selected.
type Op int

const (
	OpNone Op = iota
	OpGenerate
	OpExport
	OpImport
	OpDelete
	OpList
	OpEncrypt
	OpDecrypt
)

// Command is the parsed, validated form of the command line.
type Command struct {
	Op         Op
	DBPath     string
	Name       string
	Source     string
	Target     string
	Force      bool
	UsePublic  bool
	UsePrivate bool
}

// UsageError is returned by Parse when the arguments are malformed or
// ambiguous. It always maps to exit code 64.
type UsageError struct {
	Usage string
	Msg   string
}

func (e *UsageError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "usage error"
}

const usageText = `usage: nenc [-f] -g <name> <db>
       nenc [-p] [-P] -x <name> <db>
       nenc [-f] [-p] [-P] -i <name> <db>
       nenc [-f] [-p] [-P] -r <name> <db>
       nenc [-p] [-P] -l <db>
       nenc -e -s <name> -t <name> <db>
       nenc -d -s <name> -t <name> <db>
`

func usageErr(msg string) error {
	return &UsageError{Usage: usageText, Msg: msg}
}

// Parse parses args (not including the program name) into a Command. The
// database path is resolved from the single positional argument, falling
// back to getenv("NACLCRYPT_DB") when no positional argument is given.
func Parse(args []string, getenv func(string) string) (*Command, error) {
	fs := flag.NewFlagSet("nenc", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var cmd Command
	var generate, export, importOp, del string
	var force, usePublic, usePrivate bool
	var source, target string
	var e, d, l bool

	fs.BoolVar(&force, "f", false, "force overwrite on put / ignore missing on delete")
	fs.BoolVar(&usePublic, "p", false, "operate on the public half")
	fs.BoolVar(&usePrivate, "P", false, "operate on the private half")
	fs.StringVar(&generate, "g", "", "generate a key pair named <name>")
	fs.StringVar(&export, "x", "", "export the key(s) named <name>")
	fs.StringVar(&importOp, "i", "", "import the key(s) named <name>")
	fs.StringVar(&del, "r", "", "delete the key(s) named <name>")
	fs.StringVar(&source, "s", "", "source identity name")
	fs.StringVar(&target, "t", "", "target identity name")
	fs.BoolVar(&e, "e", false, "encrypt stdin to stdout")
	fs.BoolVar(&d, "d", false, "decrypt stdin to stdout")
	fs.BoolVar(&l, "l", false, "list stored names")

	if err := fs.Parse(args); err != nil {
		return nil, usageErr(err.Error())
	}

	cmd.Force = force
	cmd.UsePublic = usePublic
	cmd.UsePrivate = usePrivate
	cmd.Source = source
	cmd.Target = target

	set := 0
	pick := func(op Op, name string) {
		set++
		cmd.Op = op
		cmd.Name = name
	}
	if generate != "" {
		pick(OpGenerate, generate)
	}
	if export != "" {
		pick(OpExport, export)
	}
	if importOp != "" {
		pick(OpImport, importOp)
	}
	if del != "" {
		pick(OpDelete, del)
	}
	if e {
		set++
		cmd.Op = OpEncrypt
	}
	if d {
		set++
		cmd.Op = OpDecrypt
	}
	if l {
		set++
		cmd.Op = OpList
	}
	if set != 1 {
		return nil, usageErr("exactly one of -g/-x/-i/-r/-l/-e/-d must be given")
	}

	switch cmd.Op {
	case OpEncrypt, OpDecrypt:
		if cmd.Force || cmd.UsePublic || cmd.UsePrivate || cmd.Source == "" || cmd.Target == "" {
			return nil, usageErr("-e/-d require -s and -t and take no -f/-p/-P")
		}
	case OpGenerate:
		if cmd.UsePublic || cmd.UsePrivate || cmd.Source != "" || cmd.Target != "" {
			return nil, usageErr("-g takes no -p/-P/-s/-t")
		}
	case OpExport:
		if cmd.Force || cmd.Source != "" || cmd.Target != "" {
			return nil, usageErr("-x takes no -f/-s/-t")
		}
	case OpImport, OpDelete:
		if cmd.Source != "" || cmd.Target != "" {
			return nil, usageErr("-i/-r take no -s/-t")
		}
	case OpList:
		if cmd.Force || cmd.Source != "" || cmd.Target != "" {
			return nil, usageErr("-l takes no -f/-s/-t")
		}
	}

	if !cmd.UsePublic && !cmd.UsePrivate && cmd.Op != OpList && cmd.Op != OpEncrypt && cmd.Op != OpDecrypt {
		cmd.UsePublic = true
	}

	rest := fs.Args()
	switch len(rest) {
	case 0:
		if getenv == nil {
			return nil, usageErr("missing database path: give it as an argument or set NACLCRYPT_DB")
		}
		cmd.DBPath = getenv("NACLCRYPT_DB")
		if cmd.DBPath == "" {
			return nil, usageErr("missing database path: give it as an argument or set NACLCRYPT_DB")
		}
	case 1:
		cmd.DBPath = rest[0]
	default:
		return nil, usageErr(fmt.Sprintf("unexpected extra arguments: %v", rest[1:]))
	}

	return &cmd, nil
}
