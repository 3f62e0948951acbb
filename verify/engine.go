package verify

import (
	"fmt"
	"unicode/utf8"

	"northroot.dev/northroot/canonical"
	"northroot.dev/northroot/event"
	"northroot.dev/northroot/identity"
	"northroot.dev/northroot/keys"
)

// ChainResolver looks up the record bytes of a previously stored event by
// its identity. It is supplied by the storage or indexing layer; the engine
// itself never touches storage.
type ChainResolver interface {
	ResolveEvent(id canonical.Digest) (record []byte, found bool, err error)
}

// ChainResolverFunc adapts a function to the ChainResolver interface.
type ChainResolverFunc func(id canonical.Digest) ([]byte, bool, error)

func (f ChainResolverFunc) ResolveEvent(id canonical.Digest) ([]byte, bool, error) {
	return f(id)
}

// Predicate is the caller's domain classification over a structurally valid
// event. It returns VerdictDenied or VerdictViolation with a reason code to
// escalate; any other verdict leaves the event Ok. The engine never produces
// Denied or Violation on its own since those depend on schema fields it does
// not interpret.
type Predicate func(v canonical.Value) (Verdict, string)

// KeyResolver maps a signature's algorithm and key id to public key bytes.
type KeyResolver interface {
	PublicKey(alg, keyID string) ([]byte, bool)
}

// KeyResolverFunc adapts a function to the KeyResolver interface.
type KeyResolverFunc func(alg, keyID string) ([]byte, bool)

func (f KeyResolverFunc) PublicKey(alg, keyID string) ([]byte, bool) {
	return f(alg, keyID)
}

// SelfCertifyingKeys resolves keys whose key_id embeds the public key as
// "alg:base64url(pubkey)". The id certifies the key; trust in the id itself
// is the caller's policy.
func SelfCertifyingKeys() KeyResolver {
	return KeyResolverFunc(func(alg, keyID string) ([]byte, bool) {
		idAlg, pub, err := keys.PublicKeyFromID(keyID)
		if err != nil || idAlg != alg {
			return nil, false
		}
		return pub, true
	})
}

// Options configures an Engine. The zero value accepts only the default
// canonical profile, any event_version, no chain resolution, self-certifying
// signature keys, and no domain predicate.
type Options struct {
	// Profiles are the canonical profiles the engine recognizes, keyed by
	// profile id. Records naming any other profile are Invalid. Nil means
	// only the default profile. Permissive profiles are rejected at
	// construction: lossy output must never feed hashed bytes.
	Profiles []canonical.Profile
	// Versions, when non-nil, is the closed set of accepted event_version
	// values. Nil accepts any non-empty version.
	Versions []string
	// Chain resolves prev_event_id links. Nil disables chain checks.
	Chain ChainResolver
	// RequireChain escalates a broken link to Invalid. Without it a broken
	// link is reported as a reason but does not change the verdict.
	RequireChain bool
	// Keys resolves signature keys. Nil defaults to SelfCertifyingKeys so a
	// present signatures array is always checked; an engine that skipped the
	// check would report Ok for records it never fully examined.
	Keys KeyResolver
	// Predicate is the caller's Denied/Violation classifier.
	Predicate Predicate
}

// Engine verifies individual event records. It is read-only and safe for
// concurrent use once constructed.
type Engine struct {
	profiles map[canonical.ProfileID]canonical.Profile
	versions map[string]bool
	opts     Options
}

// New constructs an engine from options.
func New(opts Options) (*Engine, error) {
	e := &Engine{
		profiles: make(map[canonical.ProfileID]canonical.Profile),
		opts:     opts,
	}
	if len(opts.Profiles) == 0 {
		p := canonical.DefaultProfile()
		e.profiles[p.ID] = p
	}
	for _, p := range opts.Profiles {
		if p.Permissive {
			return nil, fmt.Errorf("verify: permissive profile %q cannot verify identities", p.ID)
		}
		e.profiles[p.ID] = p
	}
	if opts.RequireChain && opts.Chain == nil {
		return nil, fmt.Errorf("verify: RequireChain set without a chain resolver")
	}
	if e.opts.Keys == nil {
		e.opts.Keys = SelfCertifyingKeys()
	}
	if opts.Versions != nil {
		e.versions = make(map[string]bool, len(opts.Versions))
		for _, v := range opts.Versions {
			e.versions[v] = true
		}
	}
	return e, nil
}

// Verify runs the ordered checks over one record's raw bytes and classifies
// the result. The error return is reserved for environmental failures, a
// chain resolver that itself fails; every judgment about the record,
// including "this is not even JSON", is a computed Outcome with a nil error.
func (e *Engine) Verify(record []byte) (Outcome, error) {
	invalid := func(report *canonical.HygieneReport, reasons ...string) Outcome {
		return Outcome{Verdict: VerdictInvalid, Reasons: reasons, Report: report}
	}

	if !utf8.Valid(record) {
		return invalid(nil, ReasonRecordNotJSON), nil
	}
	v, err := canonical.ParseObject(record)
	if err != nil {
		return invalid(nil, ReasonRecordNotJSON), nil
	}

	profileID, ok := v.StringField(event.FieldProfile)
	if !ok {
		return invalid(nil, ReasonUnknownProfile), nil
	}
	profile, known := e.profiles[canonical.ProfileID(profileID)]
	if !known {
		return invalid(nil, ReasonUnknownProfile), nil
	}
	version, ok := v.StringField(event.FieldVersion)
	if !ok || version == "" || (e.versions != nil && !e.versions[version]) {
		return invalid(nil, ReasonUnknownVersion), nil
	}

	c := canonical.NewCanonicalizer(profile)
	_, report, err := c.Canonicalize(v)
	if err != nil {
		return invalid(report, ReasonRecordNotCanonical), nil
	}

	claimedValue, ok := v.Lookup(event.FieldEventID)
	if !ok {
		return invalid(report, ReasonEventIDMissing), nil
	}
	claimed, err := canonical.DigestFromValue(claimedValue)
	if err != nil {
		return invalid(report, ReasonEventIDMalformed), nil
	}
	computed, err := identity.ComputeEventIDWithAlg(v, c, claimed.Alg)
	if err != nil {
		return invalid(report, ReasonEventIDMalformed), nil
	}
	match, err := claimed.Equal(computed)
	if err != nil || !match {
		return Outcome{EventID: computed, Verdict: VerdictInvalid, Reasons: []string{ReasonEventIDMismatch}, Report: report}, nil
	}

	out := Outcome{EventID: computed, Verdict: VerdictOk, Report: report}

	if prevValue, ok := v.Lookup(event.FieldPrevEventID); ok && e.opts.Chain != nil {
		prev, err := canonical.DigestFromValue(prevValue)
		if err != nil {
			return invalid(report, ReasonChainBroken), nil
		}
		_, found, err := e.opts.Chain.ResolveEvent(prev)
		if err != nil {
			return out, fmt.Errorf("verify: resolve %s: %w", prev, err)
		}
		if !found {
			out.Reasons = append(out.Reasons, ReasonChainBroken)
			if e.opts.RequireChain {
				out.Verdict = VerdictInvalid
				return out, nil
			}
		}
	}

	if sigsValue, ok := v.Lookup(event.FieldSignatures); ok {
		if sigsValue.Kind() != canonical.KindArray {
			return invalid(report, ReasonSignatureMalformed), nil
		}
		items := sigsValue.Items()
		if len(items) == 0 || len(items) > event.MaxSignatures {
			return invalid(report, ReasonSignatureMalformed), nil
		}
		raw, err := computed.Raw()
		if err != nil {
			return invalid(report, ReasonEventIDMalformed), nil
		}
		for _, item := range items {
			sig, err := event.SignatureFromValue(item)
			if err != nil {
				out.Verdict = VerdictInvalid
				out.Reasons = append(out.Reasons, ReasonSignatureMalformed)
				return out, nil
			}
			pub, ok := e.opts.Keys.PublicKey(sig.Alg, sig.KeyID)
			if !ok {
				out.Verdict = VerdictInvalid
				out.Reasons = append(out.Reasons, ReasonSignatureBadKey)
				return out, nil
			}
			valid, err := keys.VerifyDigest(sig.Alg, pub, raw, sig.Sig)
			if err != nil {
				out.Verdict = VerdictInvalid
				out.Reasons = append(out.Reasons, ReasonSignatureBadKey)
				return out, nil
			}
			if !valid {
				out.Verdict = VerdictInvalid
				out.Reasons = append(out.Reasons, ReasonSignatureInvalid)
				return out, nil
			}
		}
	}

	if e.opts.Predicate != nil {
		switch verdict, reason := e.opts.Predicate(v); verdict {
		case VerdictDenied, VerdictViolation:
			out.Verdict = verdict
			if reason != "" {
				out.Reasons = append(out.Reasons, reason)
			}
		}
	}
	return out, nil
}
