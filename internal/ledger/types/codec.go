package types

import (
	"encoding/json"
	"fmt"
)

// Records are persisted as JSON payloads next to their Kind.  Each Decode
// function checks the stored kind before unmarshalling so a caller can never
// end up with a partially-shaped record of the wrong type.

func decodeKind(want, got Kind, v any, payload []byte) error {
	if got != want {
		return fmt.Errorf("decode %s: record holds kind %s", want, got)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode %s: %w", want, err)
	}
	return nil
}

func DecodeAccess(kind Kind, payload []byte) (AccessRecord, error) {
	var r AccessRecord
	err := decodeKind(KindAccess, kind, &r, payload)
	return r, err
}

func DecodeCase(kind Kind, payload []byte) (CaseRecord, error) {
	var r CaseRecord
	err := decodeKind(KindCase, kind, &r, payload)
	return r, err
}

func DecodeSceneLog(kind Kind, payload []byte) (SceneLogRecord, error) {
	var r SceneLogRecord
	err := decodeKind(KindSceneLog, kind, &r, payload)
	return r, err
}

func DecodeEvidence(kind Kind, payload []byte) (EvidenceRecord, error) {
	var r EvidenceRecord
	err := decodeKind(KindEvidence, kind, &r, payload)
	return r, err
}

func DecodeEvidenceLog(kind Kind, payload []byte) (EvidenceLogRecord, error) {
	var r EvidenceLogRecord
	err := decodeKind(KindEvidenceLog, kind, &r, payload)
	return r, err
}

// Encode marshals any record struct for storage.
func Encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return b, nil
}
