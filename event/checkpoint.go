package event

import (
	"fmt"
	"strconv"

	"northroot.dev/northroot/canonical"
)

// Checkpoint event type and version.
const (
	CheckpointType    = "northroot.checkpoint"
	CheckpointVersion = "1"
)

// ChainTip is the head of a hash chain: the identity of the newest event and
// the number of chained events beneath it.
type ChainTip struct {
	EventID canonical.Digest
	Height  uint64
}

// NewCheckpointDraft builds a checkpoint event draft anchoring a chain tip.
// A sealed checkpoint commits to the whole chain below the tip, so verifying
// the checkpoint's identity and tip link transitively covers every linked
// predecessor.
func NewCheckpointDraft(tip ChainTip, occurredAt canonical.Timestamp, principal canonical.PrincipalID, profile canonical.ProfileID) Draft {
	return Draft{
		Type:        CheckpointType,
		Version:     CheckpointVersion,
		OccurredAt:  occurredAt,
		Principal:   principal,
		Profile:     profile,
		PrevEventID: &tip.EventID,
		Fields: []canonical.Field{
			canonical.F("chain_height", canonical.Number(strconv.FormatUint(tip.Height, 10))),
			canonical.F("chain_tip", tip.EventID.Value()),
		},
	}
}

// MerkleWindow is the contiguous height range a checkpoint's Merkle root
// covers.
type MerkleWindow struct {
	StartHeight uint64
	EndHeight   uint64
}

// NewCheckpointDraftWithRoot builds a checkpoint draft that additionally
// commits to a Merkle root over a window of events. The window always
// accompanies the root: a root with no stated coverage cannot be re-checked.
func NewCheckpointDraftWithRoot(tip ChainTip, root canonical.Digest, window MerkleWindow, occurredAt canonical.Timestamp, principal canonical.PrincipalID, profile canonical.ProfileID) (Draft, error) {
	if window.StartHeight > window.EndHeight {
		return Draft{}, fmt.Errorf("event: merkle window start %d above end %d", window.StartHeight, window.EndHeight)
	}
	if window.EndHeight > tip.Height {
		return Draft{}, fmt.Errorf("event: merkle window end %d above chain height %d", window.EndHeight, tip.Height)
	}
	d := NewCheckpointDraft(tip, occurredAt, principal, profile)
	d.Fields = append(d.Fields,
		canonical.F("merkle_root", root.Value()),
		canonical.F("window", canonical.Object(
			canonical.F("end_height", canonical.Number(strconv.FormatUint(window.EndHeight, 10))),
			canonical.F("start_height", canonical.Number(strconv.FormatUint(window.StartHeight, 10))),
		)),
	)
	return d, nil
}

// CheckpointInfo is the checkpoint-specific content of a sealed envelope.
// MerkleRoot and Window are present together or not at all.
type CheckpointInfo struct {
	Tip        ChainTip
	MerkleRoot *canonical.Digest
	Window     *MerkleWindow
}

// ParseCheckpoint extracts the chain tip from a checkpoint envelope. It also
// checks the tip field agrees with prev_event_id, which a well-formed
// checkpoint always satisfies.
func ParseCheckpoint(env *Envelope) (CheckpointInfo, error) {
	if env.Type != CheckpointType {
		return CheckpointInfo{}, fmt.Errorf("event: %q is not a checkpoint", env.Type)
	}
	tipValue, ok := env.Value().Lookup("chain_tip")
	if !ok {
		return CheckpointInfo{}, fmt.Errorf("event: checkpoint missing chain_tip")
	}
	tip, err := canonical.DigestFromValue(tipValue)
	if err != nil {
		return CheckpointInfo{}, err
	}
	heightValue, ok := env.Value().Lookup("chain_height")
	if !ok || heightValue.Kind() != canonical.KindNumber {
		return CheckpointInfo{}, fmt.Errorf("event: checkpoint missing chain_height")
	}
	height, err := strconv.ParseUint(heightValue.Str(), 10, 64)
	if err != nil {
		return CheckpointInfo{}, fmt.Errorf("event: invalid chain_height: %w", err)
	}
	if env.PrevEventID == nil {
		return CheckpointInfo{}, fmt.Errorf("event: checkpoint missing prev_event_id")
	}
	match, err := env.PrevEventID.Equal(tip)
	if err != nil {
		return CheckpointInfo{}, err
	}
	if !match {
		return CheckpointInfo{}, fmt.Errorf("event: checkpoint chain_tip disagrees with prev_event_id")
	}
	info := CheckpointInfo{Tip: ChainTip{EventID: tip, Height: height}}

	rootValue, hasRoot := env.Value().Lookup("merkle_root")
	windowValue, hasWindow := env.Value().Lookup("window")
	if hasRoot != hasWindow {
		return CheckpointInfo{}, fmt.Errorf("event: checkpoint merkle_root and window must appear together")
	}
	if hasRoot {
		root, err := canonical.DigestFromValue(rootValue)
		if err != nil {
			return CheckpointInfo{}, err
		}
		window, err := parseMerkleWindow(windowValue)
		if err != nil {
			return CheckpointInfo{}, err
		}
		if window.EndHeight > height {
			return CheckpointInfo{}, fmt.Errorf("event: merkle window end %d above chain height %d", window.EndHeight, height)
		}
		info.MerkleRoot = &root
		info.Window = &window
	}
	return info, nil
}

func parseMerkleWindow(v canonical.Value) (MerkleWindow, error) {
	if !v.IsObject() {
		return MerkleWindow{}, fmt.Errorf("event: checkpoint window must be an object")
	}
	height := func(key string) (uint64, error) {
		hv, ok := v.Lookup(key)
		if !ok || hv.Kind() != canonical.KindNumber {
			return 0, fmt.Errorf("event: checkpoint window missing %s", key)
		}
		return strconv.ParseUint(hv.Str(), 10, 64)
	}
	start, err := height("start_height")
	if err != nil {
		return MerkleWindow{}, err
	}
	end, err := height("end_height")
	if err != nil {
		return MerkleWindow{}, err
	}
	if start > end {
		return MerkleWindow{}, fmt.Errorf("event: merkle window start %d above end %d", start, end)
	}
	return MerkleWindow{StartHeight: start, EndHeight: end}, nil
}
