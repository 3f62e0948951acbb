package main

import (
	"crypto/sha256"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ipfs/go-cid"

	"northroot.dev/northroot/canonical"
	"northroot.dev/northroot/cas"
	"northroot.dev/northroot/cidutil"
	"northroot.dev/northroot/event"
)

func cmdCAS(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: northroot cas <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: put, cat")
		return 2
	}
	switch args[0] {
	case "put":
		return cmdCASPut(args[1:], out, errOut)
	case "cat":
		return cmdCASCat(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown cas subcommand: %s\n", args[0])
		return 2
	}
}

func cmdCASPut(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cas put", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var root string
	var emitRef bool
	var mediaType string
	fs.StringVar(&root, "root", "", "Store root directory")
	fs.BoolVar(&emitRef, "ref", false, "Print a content_ref object instead of the bare CID")
	fs.StringVar(&mediaType, "media-type", "", "Media type hint recorded on the content_ref")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if root == "" {
		fmt.Fprintln(errOut, "missing --root")
		return 2
	}
	input, err := readInput(fs)
	if err != nil {
		fmt.Fprintf(errOut, "read input: %v\n", err)
		return 2
	}

	s, err := cas.NewLocalFS(root)
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 1
	}
	id, err := s.Put(input)
	if err != nil {
		fmt.Fprintf(errOut, "put: %v\n", err)
		return 1
	}
	if !emitRef {
		_, _ = fmt.Fprintln(out, id)
		return 0
	}

	sum := sha256.Sum256(input)
	digest, err := canonical.DigestFromRaw(canonical.AlgSHA256, sum[:])
	if err != nil {
		fmt.Fprintf(errOut, "digest: %v\n", err)
		return 1
	}
	// The ref digest and the store address derive from the same bytes; a
	// disagreement means the store wrote something other than the input.
	derived, err := cidutil.FromDigest(digest)
	if err != nil {
		fmt.Fprintf(errOut, "derive cid: %v\n", err)
		return 1
	}
	if derived != id {
		fmt.Fprintf(errOut, "stored cid %s disagrees with content digest %s\n", id, derived)
		return 1
	}
	size := uint64(len(input))
	ref := event.ContentRef{Digest: digest, SizeBytes: &size, MediaType: mediaType}
	refBytes, _, err := canonical.NewCanonicalizer(canonical.DefaultProfile()).Canonicalize(ref.Value())
	if err != nil {
		fmt.Fprintf(errOut, "encode ref: %v\n", err)
		return 1
	}
	_, _ = out.Write(refBytes)
	_, _ = fmt.Fprintln(out)
	return 0
}

func cmdCASCat(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cas cat", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var root string
	var refPath string
	fs.StringVar(&root, "root", "", "Store root directory")
	fs.StringVar(&refPath, "ref", "", "Resolve a content_ref object from this file instead of a CID argument")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	badArgs := (refPath == "" && fs.NArg() != 1) || (refPath != "" && fs.NArg() != 0)
	if root == "" || badArgs {
		fmt.Fprintln(errOut, "usage: northroot cas cat --root <dir> (<cid> | --ref <file>)")
		return 2
	}

	var id cid.Cid
	var ref *event.ContentRef
	if refPath != "" {
		data, err := os.ReadFile(refPath)
		if err != nil {
			fmt.Fprintf(errOut, "read --ref: %v\n", err)
			return 2
		}
		v, err := canonical.ParseObject(data)
		if err != nil {
			fmt.Fprintf(errOut, "parse --ref: %v\n", err)
			return 2
		}
		r, err := event.ContentRefFromValue(v)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --ref: %v\n", err)
			return 2
		}
		ref = &r
		if id, err = cidutil.FromDigest(r.Digest); err != nil {
			fmt.Fprintf(errOut, "invalid --ref: %v\n", err)
			return 2
		}
	} else {
		var err error
		if id, err = cid.Decode(fs.Arg(0)); err != nil {
			fmt.Fprintf(errOut, "invalid cid: %v\n", err)
			return 2
		}
	}

	s, err := cas.NewLocalFS(root)
	if err != nil {
		fmt.Fprintf(errOut, "open store: %v\n", err)
		return 1
	}
	b, err := s.Get(id)
	if err != nil {
		fmt.Fprintf(errOut, "get: %v\n", err)
		return 1
	}
	if ref != nil && ref.SizeBytes != nil && uint64(len(b)) != *ref.SizeBytes {
		fmt.Fprintf(errOut, "content is %d bytes, ref declares %d\n", len(b), *ref.SizeBytes)
		return 1
	}
	_, _ = out.Write(b)
	return 0
}
