package types

import (
	"encoding/hex"
	"fmt"
)

// IdentitySize is the byte length of a caller identity (a public key).
const IdentitySize = 32

// AddressSize is the byte length of a derived record address.
const AddressSize = 32

// Identity is the opaque fixed-size public identifier of a caller.
// Equality is byte-exact.
type Identity [IdentitySize]byte

// Address is the deterministic identifier of a committed record.
type Address [AddressSize]byte

func (id Identity) String() string { return hex.EncodeToString(id[:]) }

func (id Identity) IsZero() bool { return id == Identity{} }

func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identity) UnmarshalText(b []byte) error {
	parsed, err := ParseIdentity(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseIdentity decodes a 64-character hex string into an Identity.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("parse identity: %w", err)
	}
	if len(b) != IdentitySize {
		return id, fmt.Errorf("parse identity: want %d bytes, got %d", IdentitySize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (a Address) String() string { return hex.EncodeToString(a[:]) }

func (a Address) IsZero() bool { return a == Address{} }

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(b []byte) error {
	parsed, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress decodes a 64-character hex string into an Address.
func ParseAddress(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("parse address: %w", err)
	}
	if len(b) != AddressSize {
		return a, fmt.Errorf("parse address: want %d bytes, got %d", AddressSize, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Kind discriminates the record types stored in the ledger.
type Kind string

const (
	KindAccess      Kind = "access"
	KindCase        Kind = "case"
	KindSceneLog    Kind = "scene_log"
	KindEvidence    Kind = "evidence"
	KindEvidenceLog Kind = "evidence_log"
)

// AccessRecord is one entry in the access-control ledger.  An admin record
// (subject == granted_by, is_admin) is self-initialized; a grant record is
// written by an admin on behalf of the subject.  Records are never deleted;
// revocation flips HasAccess.
type AccessRecord struct {
	Subject   Identity `json:"subject"`
	HasAccess bool     `json:"has_access"`
	GrantedBy Identity `json:"granted_by"`
	IsAdmin   bool     `json:"is_admin"`
}

// CaseRecord is the root record for one crime scene.  Counters and reference
// sequences only ever grow; all other fields are immutable after creation.
type CaseRecord struct {
	CaseID        string    `json:"case_id"`
	Location      string    `json:"location"`
	Authority     Identity  `json:"authority"`
	LogCount      uint64    `json:"log_count"`
	EvidenceCount uint64    `json:"evidence_count"`
	SceneLogRefs  []Address `json:"scene_log_refs"`
	EvidenceRefs  []Address `json:"evidence_refs"`
}

// SceneLogRecord is one immutable entry in a case's scene log.
// SequenceNumber is the 0-based position in the parent case's log history.
type SceneLogRecord struct {
	ParentCase     Address `json:"parent_case"`
	Timestamp      int64   `json:"timestamp"`
	Description    string  `json:"description"`
	OfficerID      string  `json:"officer_id"`
	SequenceNumber uint64  `json:"sequence_number"`
}

// EvidenceRecord is one item of evidence under a case.  Its custody log
// grows append-only; everything else is immutable after creation.
type EvidenceRecord struct {
	ParentCase      Address   `json:"parent_case"`
	EvidenceID      string    `json:"evidence_id"`
	Description     string    `json:"description"`
	LocationFound   string    `json:"location_found"`
	LogCount        uint64    `json:"log_count"`
	SequenceNumber  uint64    `json:"sequence_number"`
	EvidenceLogRefs []Address `json:"evidence_log_refs"`
}

// EvidenceLogRecord is one immutable custody entry for an evidence item.
type EvidenceLogRecord struct {
	ParentEvidence Address `json:"parent_evidence"`
	Timestamp      int64   `json:"timestamp"`
	Action         string  `json:"action"`
	Handler        string  `json:"handler"`
	Notes          string  `json:"notes"`
	SequenceNumber uint64  `json:"sequence_number"`
}
