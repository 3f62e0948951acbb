package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"northroot.dev/northroot/canonical"
	"northroot.dev/northroot/identity"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "canonicalize":
		return cmdCanonicalize(args[1:], out, errOut)
	case "hash":
		return cmdHash(args[1:], out, errOut)
	case "append":
		return cmdAppend(args[1:], out, errOut)
	case "list":
		return cmdList(args[1:], out, errOut)
	case "get":
		return cmdGet(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "checkpoint":
		return cmdCheckpoint(args[1:], out, errOut)
	case "attest":
		return cmdAttest(args[1:], out, errOut)
	case "gen":
		return cmdGen(args[1:], out, errOut)
	case "cas":
		return cmdCAS(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "northroot: canonical-event journal and verification CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  northroot canonicalize [--permissive] [<file>]")
	fmt.Fprintln(w, "  northroot hash [--alg sha-256|sha3-256] [--payload] [<file>]")
	fmt.Fprintln(w, "  northroot append --journal <path> [--seal] [--sync] [<file>]")
	fmt.Fprintln(w, "  northroot list --journal <path> [--mode strict|permissive] [--type <t>] [--principal <p>] [--offsets]")
	fmt.Fprintln(w, "  northroot get --journal <path> --id <alg:b64>")
	fmt.Fprintln(w, "  northroot verify --journal <path> [--record <file>] [--profile <id> ...] [--require-chain] [--halt] [--mode strict|permissive]")
	fmt.Fprintln(w, "  northroot checkpoint --journal <path> --principal <id> [--profile <id>] [--at <rfc3339z>]")
	fmt.Fprintln(w, "  northroot attest --journal <path> --principal <id> (--seed-hex <hex> | --signer <name> [--role <role>] | --key-file <path>)")
	fmt.Fprintln(w, "  northroot gen --journal <path> --count <n> [--tool <name>] [--unknown-kind] [--malformed]")
	fmt.Fprintln(w, "  northroot cas put --root <dir> [--ref] [--media-type <mt>] [<file>]")
	fmt.Fprintln(w, "  northroot cas cat --root <dir> (<cid> | --ref <file>)")
	fmt.Fprintln(w, "  northroot key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  northroot key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  northroot key list")
	fmt.Fprintln(w, "  northroot key export --name <name> [--role <role>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - commands reading <file> read stdin when the argument is omitted")
	fmt.Fprintln(w, "  - canonicalize writes canonical bytes to stdout (no trailing newline)")
	fmt.Fprintln(w, "  - hash prints the event identity as alg:b64; --payload hashes raw bytes under the payload separator")
	fmt.Fprintln(w, "  - keys are stored under ~/.northroot/keys/<name> (0600 private key files)")
	fmt.Fprintln(w, "  - verify exits 1 when any record fails, 0 when all verify Ok")
}

// readInput reads the single optional file argument, or stdin when absent.
func readInput(fs *flag.FlagSet) ([]byte, error) {
	switch fs.NArg() {
	case 0:
		return io.ReadAll(os.Stdin)
	case 1:
		return os.ReadFile(fs.Arg(0))
	default:
		return nil, fmt.Errorf("expected at most one file argument")
	}
}

func cmdCanonicalize(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("canonicalize", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var permissive bool
	fs.BoolVar(&permissive, "permissive", false, "Demote float-form numbers to strings with a warning instead of rejecting")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	input, err := readInput(fs)
	if err != nil {
		fmt.Fprintf(errOut, "read input: %v\n", err)
		return 2
	}

	v, err := canonical.Parse(input)
	if err != nil {
		fmt.Fprintf(errOut, "parse: %v\n", err)
		return 1
	}
	profile := canonical.DefaultProfile()
	if permissive {
		profile = canonical.PermissiveProfile()
	}
	c := canonical.NewCanonicalizer(profile)
	bytes, report, err := c.Canonicalize(v)
	if err != nil {
		fmt.Fprintf(errOut, "canonicalize: %v\n", err)
		return 1
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(errOut, "warning: %s\n", w)
	}
	_, _ = out.Write(bytes)
	return 0
}

func cmdHash(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var algName string
	var payload bool
	fs.StringVar(&algName, "alg", string(canonical.AlgSHA256), "Digest algorithm: sha-256 or sha3-256")
	fs.BoolVar(&payload, "payload", false, "Hash raw bytes under the payload domain separator instead of treating input as an event")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	input, err := readInput(fs)
	if err != nil {
		fmt.Fprintf(errOut, "read input: %v\n", err)
		return 2
	}

	if payload {
		d, err := identity.PayloadDigest(input)
		if err != nil {
			fmt.Fprintf(errOut, "hash payload: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, d)
		return 0
	}

	v, err := canonical.ParseObject(input)
	if err != nil {
		fmt.Fprintf(errOut, "parse: %v\n", err)
		return 1
	}
	c := canonical.NewCanonicalizer(canonical.DefaultProfile())
	d, err := identity.ComputeEventIDWithAlg(v, c, canonical.DigestAlg(algName))
	if err != nil {
		fmt.Fprintf(errOut, "hash: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, d)
	return 0
}
