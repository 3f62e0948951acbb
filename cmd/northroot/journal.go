package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"northroot.dev/northroot/canonical"
	"northroot.dev/northroot/event"
	"northroot.dev/northroot/identity"
	"northroot.dev/northroot/journal"
	"northroot.dev/northroot/store"
)

func parseReadMode(mode string) (journal.ReadMode, error) {
	switch mode {
	case "strict":
		return journal.Strict, nil
	case "permissive":
		return journal.Permissive, nil
	default:
		return 0, fmt.Errorf("invalid mode %q (want strict or permissive)", mode)
	}
}

func cmdAppend(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("append", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var journalPath string
	var seal bool
	var sync bool
	fs.StringVar(&journalPath, "journal", "", "Journal file path")
	fs.BoolVar(&seal, "seal", false, "Compute and stamp event_id when the input lacks one")
	fs.BoolVar(&sync, "sync", false, "fsync after the append")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if journalPath == "" {
		fmt.Fprintln(errOut, "missing --journal")
		return 2
	}
	input, err := readInput(fs)
	if err != nil {
		fmt.Fprintf(errOut, "read input: %v\n", err)
		return 2
	}

	v, err := canonical.ParseObject(input)
	if err != nil {
		fmt.Fprintf(errOut, "parse: %v\n", err)
		return 1
	}
	c := canonical.NewCanonicalizer(canonical.DefaultProfile())
	if _, ok := v.Lookup(event.FieldEventID); !ok {
		if !seal {
			fmt.Fprintln(errOut, "input has no event_id (use --seal to compute one)")
			return 2
		}
		id, err := identity.ComputeEventID(v, c)
		if err != nil {
			fmt.Fprintf(errOut, "seal: %v\n", err)
			return 1
		}
		v = v.WithField(event.FieldEventID, id.Value())
	}
	record, _, err := c.Canonicalize(v)
	if err != nil {
		fmt.Fprintf(errOut, "canonicalize: %v\n", err)
		return 1
	}

	w, err := journal.OpenWriter(journalPath, journal.WriteOptions{Create: true, Sync: sync})
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

	idValue, _ := v.Lookup(event.FieldEventID)
	if id, err := canonical.DigestFromValue(idValue); err == nil {
		fmt.Fprintf(errOut, "Event-ID: %s\n", id)
	}
	return 0
}

func cmdList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var journalPath string
	var mode string
	var eventType string
	var principal string
	var offsets bool
	fs.StringVar(&journalPath, "journal", "", "Journal file path")
	fs.StringVar(&mode, "mode", "permissive", "Read mode: strict or permissive")
	fs.StringVar(&eventType, "type", "", "Only records with this event_type")
	fs.StringVar(&principal, "principal", "", "Only records with this principal_id")
	fs.BoolVar(&offsets, "offsets", false, "Prefix each record with its frame offset")

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

	var filters []store.Filter
	if eventType != "" {
		filters = append(filters, store.ByType(eventType))
	}
	if principal != "" {
		filters = append(filters, store.ByPrincipal(principal))
	}

	r, err := journal.OpenReader(journalPath, journal.ReadOptions{Mode: readMode})
	if err != nil {
		fmt.Fprintf(errOut, "open journal: %v\n", err)
		return 1
	}
	defer r.Close()

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return 0
		}
		if err != nil {
			fmt.Fprintf(errOut, "read: %v\n", err)
			return 1
		}
		if !rec.IsEvent() {
			continue
		}
		if len(filters) > 0 {
			v, err := canonical.ParseObject(rec.Payload)
			if err != nil || !store.And(filters...).Match(v) {
				continue
			}
		}
		if offsets {
			fmt.Fprintf(out, "%d\t", rec.Offset)
		}
		_, _ = out.Write(rec.Payload)
		_, _ = fmt.Fprintln(out)
	}
}

func cmdGet(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var journalPath string
	var idStr string
	fs.StringVar(&journalPath, "journal", "", "Journal file path")
	fs.StringVar(&idStr, "id", "", "Event identity as alg:b64")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if journalPath == "" || idStr == "" {
		fmt.Fprintln(errOut, "usage: northroot get --journal <path> --id <alg:b64>")
		return 2
	}
	id, err := canonical.ParseDigest(idStr)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --id: %v\n", err)
		return 2
	}

	record, found, err := store.ResolveEvent(journalPath, id, journal.ReadOptions{Mode: journal.Permissive})
	if err != nil {
		fmt.Fprintf(errOut, "resolve: %v\n", err)
		return 1
	}
	if !found {
		fmt.Fprintf(errOut, "not found: %s\n", id)
		return 1
	}
	_, _ = out.Write(record)
	_, _ = fmt.Fprintln(out)
	return 0
}

func cmdCheckpoint(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("checkpoint", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var journalPath string
	var principal string
	var profile string
	var at string
	fs.StringVar(&journalPath, "journal", "", "Journal file path")
	fs.StringVar(&principal, "principal", "", "Principal id for the checkpoint event")
	fs.StringVar(&profile, "profile", string(canonical.DefaultProfileID), "Canonical profile id")
	fs.StringVar(&at, "at", "", "Checkpoint occurred_at (strict RFC 3339 UTC; defaults to now)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if journalPath == "" || principal == "" {
		fmt.Fprintln(errOut, "usage: northroot checkpoint --journal <path> --principal <id> [--profile <id>] [--at <rfc3339z>]")
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

	tip, found, err := store.ChainTip(journalPath, journal.ReadOptions{Mode: journal.Permissive})
	if err != nil {
		fmt.Fprintf(errOut, "scan journal: %v\n", err)
		return 1
	}
	if !found {
		fmt.Fprintln(errOut, "journal has no events to checkpoint")
		return 1
	}

	c := canonical.NewCanonicalizer(canonical.DefaultProfile())
	draft := event.NewCheckpointDraft(tip, occurredAt, principalID, profileID)
	env, err := event.Seal(draft, c)
	if err != nil {
		fmt.Fprintf(errOut, "seal checkpoint: %v\n", err)
		return 1
	}
	record, err := env.EncodeCanonical(c)
	if err != nil {
		fmt.Fprintf(errOut, "encode checkpoint: %v\n", err)
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
	fmt.Fprintf(errOut, "Checkpoint-ID: %s (height %d)\n", env.EventID, tip.Height)
	return 0
}

func cmdGen(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var journalPath string
	var count int
	var tool string
	var unknownKind bool
	var malformed bool
	fs.StringVar(&journalPath, "journal", "", "Journal file path")
	fs.IntVar(&count, "count", 3, "Number of events to generate")
	fs.StringVar(&tool, "tool", "test.tool", "tool_name stamped on generated events")
	fs.BoolVar(&unknownKind, "unknown-kind", false, "Also append one frame of reserved kind 0x02")
	fs.BoolVar(&malformed, "malformed", false, "Also append one event frame that is not valid canonical JSON")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if journalPath == "" || count < 0 {
		fmt.Fprintln(errOut, "usage: northroot gen --journal <path> --count <n> [--tool <name>] [--unknown-kind] [--malformed]")
		return 2
	}
	toolName, err := canonical.ParseToolName(tool)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --tool: %v\n", err)
		return 2
	}

	w, err := journal.OpenWriter(journalPath, journal.WriteOptions{Create: true})
	if err != nil {
		fmt.Fprintf(errOut, "open journal: %v\n", err)
		return 1
	}
	defer w.Close()

	c := canonical.NewCanonicalizer(canonical.DefaultProfile())
	var prev *canonical.Digest
	for i := 0; i < count; i++ {
		draft := event.Draft{
			Type:        "northroot.gen",
			Version:     "1",
			OccurredAt:  canonical.Timestamp(fmt.Sprintf("2024-01-01T00:00:%02dZ", i%60)),
			Principal:   "service:gen",
			Profile:     canonical.DefaultProfileID,
			PrevEventID: prev,
			Fields: []canonical.Field{
				canonical.F("seq", canonical.Number(strconv.Itoa(i))),
				canonical.F("tool_name", canonical.String(string(toolName))),
			},
		}
		env, err := event.Seal(draft, c)
		if err != nil {
			fmt.Fprintf(errOut, "seal: %v\n", err)
			return 1
		}
		record, err := env.EncodeCanonical(c)
		if err != nil {
			fmt.Fprintf(errOut, "encode: %v\n", err)
			return 1
		}
		if err := w.AppendEvent(record); err != nil {
			fmt.Fprintf(errOut, "append: %v\n", err)
			return 1
		}
		id := env.EventID
		prev = &id
	}
	if unknownKind {
		if err := w.Append(0x02, []byte{0xde, 0xad}); err != nil {
			fmt.Fprintf(errOut, "append unknown kind: %v\n", err)
			return 1
		}
	}
	if malformed {
		if err := w.Append(journal.KindEventJSON, []byte(`{"event_type":`)); err != nil {
			fmt.Fprintf(errOut, "append malformed: %v\n", err)
			return 1
		}
	}
	if err := w.Close(); err != nil {
		fmt.Fprintf(errOut, "close journal: %v\n", err)
		return 1
	}
	fmt.Fprintf(errOut, "generated %d events\n", count)
	return 0
}
