package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"northroot.dev/northroot/canonical"
)

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec
// and a sha2-256 multihash.
func CIDv1RawSHA256(data []byte) string {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and -1
		// length, this should be unreachable.
		return ""
	}
	return cid.NewCidV1(cid.Raw, sum).String()
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// FromDigest wraps an existing sha-256 digest as a CIDv1 (raw) without
// rehashing, for addressing content a digest field already names. Only
// sha-256 digests convert; the raw codec carries no entry for the other
// tagged algorithms.
func FromDigest(d canonical.Digest) (cid.Cid, error) {
	if d.Alg != canonical.AlgSHA256 {
		return cid.Undef, &canonical.Error{
			Kind:    canonical.KindValidation,
			RuleID:  "NR-VAL-306",
			Message: "only sha-256 digests convert to CIDs",
		}
	}
	raw, err := d.Raw()
	if err != nil {
		return cid.Undef, err
	}
	sum, err := multihash.Encode(raw, multihash.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}
