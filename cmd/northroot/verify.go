package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"northroot.dev/northroot/canonical"
	"northroot.dev/northroot/journal"
	"northroot.dev/northroot/store"
	"northroot.dev/northroot/verify"
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var journalPath string
	var recordPath string
	var profileIDs stringList
	var requireChain bool
	var halt bool
	var mode string
	fs.StringVar(&journalPath, "journal", "", "Journal file path")
	fs.StringVar(&recordPath, "record", "", "Verify a single record from this file instead of the whole journal")
	fs.Var(&profileIDs, "profile", "Accepted canonical profile id (repeatable; default profile when omitted)")
	fs.BoolVar(&requireChain, "require-chain", false, "Treat a broken prev_event_id link as Invalid")
	fs.BoolVar(&halt, "halt", false, "Stop at the first non-Ok record")
	fs.StringVar(&mode, "mode", "permissive", "Journal read mode: strict or permissive")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if journalPath == "" {
		fmt.Fprintln(errOut, "missing --journal")
		return 2
	}
	readMode, err := parseReadMode(mode)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	opts := verify.Options{
		Chain:        store.ChainResolver(journalPath, journal.ReadOptions{Mode: readMode}),
		RequireChain: requireChain,
		Keys:         verify.SelfCertifyingKeys(),
	}
	if len(profileIDs) > 0 {
		opts.Profiles = append(opts.Profiles, canonical.DefaultProfile())
		for _, id := range profileIDs {
			opts.Profiles = append(opts.Profiles, canonical.Profile{
				ID:              canonical.ProfileID(id),
				MaxDecimalScale: canonical.DefaultMaxDecimalScale,
			})
		}
	}
	engine, err := verify.New(opts)
	if err != nil {
		fmt.Fprintf(errOut, "configure engine: %v\n", err)
		return 2
	}

	if recordPath != "" {
		record, err := os.ReadFile(recordPath)
		if err != nil {
			fmt.Fprintf(errOut, "read --record: %v\n", err)
			return 1
		}
		outcome, err := engine.Verify(record)
		if err != nil {
			fmt.Fprintf(errOut, "verify: %v\n", err)
			return 1
		}
		printOutcome(out, -1, outcome)
		if outcome.Verdict != verify.VerdictOk {
			return 1
		}
		return 0
	}

	result, err := engine.VerifyJournal(journalPath, verify.BatchOptions{
		Read:          journal.ReadOptions{Mode: readMode},
		HaltOnFailure: halt,
	})
	if err != nil {
		fmt.Fprintf(errOut, "verify journal: %v\n", err)
		return 1
	}
	for _, failure := range result.Failures {
		printOutcome(out, failure.Offset, failure.Outcome)
	}
	fmt.Fprintf(errOut, "checked %d, failed %d, skipped %d non-event frames\n",
		result.Checked, len(result.Failures), result.Skipped)
	if len(result.Failures) > 0 {
		return 1
	}
	return 0
}

func printOutcome(out io.Writer, offset int64, outcome verify.Outcome) {
	id := "-"
	if !outcome.EventID.IsZero() {
		id = outcome.EventID.String()
	}
	if offset >= 0 {
		fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", offset, outcome.Verdict, id, strings.Join(outcome.Reasons, ","))
		return
	}
	fmt.Fprintf(out, "%s\t%s\t%s\n", outcome.Verdict, id, strings.Join(outcome.Reasons, ","))
}
