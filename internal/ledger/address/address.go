// Package address derives deterministic record addresses from logical keys.
//
// An address is the SHA-256 of a domain tag followed by the key parts, each
// part prefixed with its length so that adjacent parts can never be confused
// ("ab"+"c" vs "a"+"bc").  Identical keys always yield the same address;
// creation at an occupied address is how the ledger detects duplicates.
package address

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

// Domain tags, one per record type.
const (
	TagAdmin       = "admin-self"
	TagGrant       = "user-grant"
	TagCase        = "case"
	TagSceneLog    = "scene-log"
	TagEvidence    = "evidence"
	TagEvidenceLog = "evidence-log"
)

// Derive computes the address for a domain tag and an ordered sequence of
// key parts.
func Derive(tag string, parts ...[]byte) types.Address {
	h := sha256.New()
	h.Write([]byte(tag))
	var frame [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(frame[:], uint64(len(p)))
		h.Write(frame[:])
		h.Write(p)
	}
	var a types.Address
	h.Sum(a[:0])
	return a
}

// ForAdmin addresses the self-initialized admin record of subject.
func ForAdmin(subject types.Identity) types.Address {
	return Derive(TagAdmin, subject[:])
}

// ForGrant addresses the admin-delegated grant record of subject.
func ForGrant(subject types.Identity) types.Address {
	return Derive(TagGrant, subject[:])
}

// ForCase addresses a case by its caller-chosen case id.
func ForCase(caseID string) types.Address {
	return Derive(TagCase, []byte(caseID))
}

// ForSceneLog addresses the seq-th scene log of a case.  Keying on the
// parent's counter (not a timestamp) is what makes the Nth log's address
// stable and collision-free.
func ForSceneLog(parentCase types.Address, seq uint64) types.Address {
	return Derive(TagSceneLog, parentCase[:], seqBytes(seq))
}

// ForEvidence addresses an evidence item by its id within a case.
func ForEvidence(parentCase types.Address, evidenceID string) types.Address {
	return Derive(TagEvidence, parentCase[:], []byte(evidenceID))
}

// ForEvidenceLog addresses the seq-th custody log of an evidence item.
func ForEvidenceLog(parentEvidence types.Address, seq uint64) types.Address {
	return Derive(TagEvidenceLog, parentEvidence[:], seqBytes(seq))
}

func seqBytes(seq uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return b[:]
}
