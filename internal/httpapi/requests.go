package httpapi

import (
	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

type subjectRequest struct {
	Subject types.Identity `json:"subject"`
}

type initializeCaseRequest struct {
	CaseID   string `json:"case_id"`
	Location string `json:"location"`
}

type sceneLogRequest struct {
	Timestamp   int64  `json:"timestamp"`
	Description string `json:"description"`
	OfficerID   string `json:"officer_id"`
}

type evidenceRequest struct {
	EvidenceID    string `json:"evidence_id"`
	Description   string `json:"description"`
	LocationFound string `json:"location_found"`
}

type evidenceLogRequest struct {
	Timestamp int64  `json:"timestamp"`
	Action    string `json:"action"`
	Handler   string `json:"handler"`
	Notes     string `json:"notes"`
}

type addressResponse struct {
	Address types.Address `json:"address"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type listResponse struct {
	Addresses []types.Address `json:"addresses"`
}

type recordResponse struct {
	Address types.Address `json:"address"`
	Kind    types.Kind    `json:"kind"`
	Record  any           `json:"record"`
}

type accessStatusResponse struct {
	Identity       types.Identity      `json:"identity"`
	HasWriteAccess bool                `json:"has_write_access"`
	Admin          *types.AccessRecord `json:"admin,omitempty"`
	Grant          *types.AccessRecord `json:"grant,omitempty"`
}
