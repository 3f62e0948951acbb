package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"northroot.dev/northroot/canonical"
	"northroot.dev/northroot/event"
	"northroot.dev/northroot/journal"
	"northroot.dev/northroot/keys"
)

// latestCheckpoint scans the journal for the newest checkpoint event.
func latestCheckpoint(journalPath string) (*event.Envelope, error) {
	r, err := journal.OpenReader(journalPath, journal.ReadOptions{Mode: journal.Permissive})
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var last []byte
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !rec.IsEvent() {
			continue
		}
		v, err := canonical.ParseObject(rec.Payload)
		if err != nil {
			continue
		}
		if eventType, ok := v.StringField(event.FieldType); ok && eventType == event.CheckpointType {
			last = rec.Payload
		}
	}
	if last == nil {
		return nil, nil
	}
	return event.Decode(last)
}

func cmdAttest(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("attest", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var journalPath string
	var principal string
	var profile string
	var at string
	var seedHex string
	var signer string
	var role string
	var keyFile string
	var keysDir string
	fs.StringVar(&journalPath, "journal", "", "Journal file path")
	fs.StringVar(&principal, "principal", "", "Principal id for the attestation event")
	fs.StringVar(&profile, "profile", string(canonical.DefaultProfileID), "Canonical profile id")
	fs.StringVar(&at, "at", "", "Attestation occurred_at (strict RFC 3339 UTC; defaults to now)")
	fs.StringVar(&seedHex, "seed-hex", "", "Signing seed as 64 hex chars")
	fs.StringVar(&signer, "signer", "", "Stored key name to sign with")
	fs.StringVar(&role, "role", "", "Optional role of the stored key")
	fs.StringVar(&keyFile, "key-file", "", "Path to a seed file to sign with")
	fs.StringVar(&keysDir, "keys", "", "Key store directory (defaults to ~/.northroot/keys)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if journalPath == "" || principal == "" {
		fmt.Fprintln(errOut, "usage: northroot attest --journal <path> --principal <id> (--seed-hex <hex> | --signer <name> [--role <role>] | --key-file <path>)")
		return 2
	}
	if at == "" {
		at = time.Now().UTC().Format("2006-01-02T15:04:05Z")
	}
	occurredAt, err := canonical.ParseTimestamp(at)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --at: %v\n", err)
		return 2
	}
	principalID, err := canonical.ParsePrincipalID(principal)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --principal: %v\n", err)
		return 2
	}
	profileID, err := canonical.ParseProfileID(profile)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --profile: %v\n", err)
		return 2
	}

	ks, err := keys.CreateKeyStore(keysDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	seed, err := ks.LoadSeed(seedHex, signer, role, keyFile)
	if err != nil {
		fmt.Fprintf(errOut, "load signing key: %v\n", err)
		return 2
	}
	priv, err := keys.PrivateKeyFromSeed(seed)
	if err != nil {
		fmt.Fprintf(errOut, "load signing key: %v\n", err)
		return 2
	}

	checkpoint, err := latestCheckpoint(journalPath)
	if err != nil {
		fmt.Fprintf(errOut, "scan journal: %v\n", err)
		return 1
	}
	if checkpoint == nil {
		fmt.Fprintln(errOut, "journal has no checkpoint to attest")
		return 1
	}

	c := canonical.NewCanonicalizer(canonical.DefaultProfile())
	env, err := event.Seal(event.NewAttestationDraft(checkpoint.EventID, occurredAt, principalID, profileID), c)
	if err != nil {
		fmt.Fprintf(errOut, "seal attestation: %v\n", err)
		return 1
	}
	digest, err := env.EventID.Raw()
	if err != nil {
		fmt.Fprintf(errOut, "attestation digest: %v\n", err)
		return 1
	}
	sig, err := keys.SignDigest(keys.AlgEd25519, priv, digest)
	if err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}
	signed, err := env.WithSignatures(event.Signature{
		Alg:   event.SigAlgEd25519,
		KeyID: keys.KeyIDFromSeed(seed),
		Sig:   sig,
	})
	if err != nil {
		fmt.Fprintf(errOut, "attach signature: %v\n", err)
		return 1
	}
	record, err := signed.EncodeCanonical(c)
	if err != nil {
		fmt.Fprintf(errOut, "encode attestation: %v\n", err)
		return 1
	}

	w, err := journal.OpenWriter(journalPath, journal.WriteOptions{Create: false, Sync: true})
	if err != nil {
		fmt.Fprintf(errOut, "open journal: %v\n", err)
		return 1
	}
	defer w.Close()
	if err := w.AppendEvent(record); err != nil {
		fmt.Fprintf(errOut, "append: %v\n", err)
		return 1
	}
	if err := w.Close(); err != nil {
		fmt.Fprintf(errOut, "close journal: %v\n", err)
		return 1
	}
	fmt.Fprintf(errOut, "Attestation-ID: %s (checkpoint %s)\n", signed.EventID, checkpoint.EventID)
	return 0
}
