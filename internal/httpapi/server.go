package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/custodialabs/custodia/server/internal/ledger/service"
	"github.com/custodialabs/custodia/server/internal/ledger/types"
)

// identityHeader carries the caller's public identity, supplied by the
// session collaborator.  Required on mutations; reads are public.
const identityHeader = "X-Custodia-Identity"

// maxRequestBody caps JSON request bodies.  The largest legal payload is a
// few hundred bytes of bounded string fields, so 64 KiB is generous.
const maxRequestBody = 64 << 10

type Dependencies struct {
	Logger  *log.Logger
	Addr    string
	Gateway *service.Gateway
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	gateway    *service.Gateway
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:  d.Logger,
		mux:     mux,
		gateway: d.Gateway,
	}

	mux.HandleFunc("POST /v1/access/admin", s.handleInitializeAdmin)
	mux.HandleFunc("POST /v1/access/grants", s.handleGrant)
	mux.HandleFunc("DELETE /v1/access/grants", s.handleRevoke)
	mux.HandleFunc("GET /v1/access/{identity}", s.handleAccessStatus)

	mux.HandleFunc("POST /v1/cases", s.handleInitializeCase)
	mux.HandleFunc("GET /v1/cases/{address}", s.handleGetCase)
	mux.HandleFunc("POST /v1/cases/{address}/scene-logs", s.handleAppendSceneLog)
	mux.HandleFunc("GET /v1/cases/{address}/scene-logs", s.handleListSceneLogs)
	mux.HandleFunc("POST /v1/cases/{address}/evidence", s.handleAppendEvidence)
	mux.HandleFunc("GET /v1/cases/{address}/evidence", s.handleListEvidence)

	mux.HandleFunc("POST /v1/evidence/{address}/logs", s.handleAppendEvidenceLog)
	mux.HandleFunc("GET /v1/evidence/{address}/logs", s.handleListEvidenceLogs)

	mux.HandleFunc("GET /v1/records/{address}", s.handleFetchRecord)

	handler := requestIDMiddleware(loggingMiddleware(d.Logger, mux))

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ── Access control ───────────────────────────────────────────────────────────

func (s *Server) handleInitializeAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}

	addr, err := s.gateway.Access.InitializeAdmin(r.Context(), caller)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addressResponse{Address: addr})
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req subjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Subject.IsZero() {
		writeError(w, http.StatusBadRequest, "invalid_identity", "subject is required")
		return
	}

	addr, err := s.gateway.Access.Grant(r.Context(), caller, req.Subject)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addressResponse{Address: addr})
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req subjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Subject.IsZero() {
		writeError(w, http.StatusBadRequest, "invalid_identity", "subject is required")
		return
	}

	if err := s.gateway.Access.Revoke(r.Context(), caller, req.Subject); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) handleAccessStatus(w http.ResponseWriter, r *http.Request) {
	identity, err := types.ParseIdentity(r.PathValue("identity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_identity", "identity must be 64 hex characters")
		return
	}

	st, err := s.gateway.Access.Status(r.Context(), identity)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accessStatusResponse{
		Identity:       identity,
		HasWriteAccess: st.HasWriteAccess,
		Admin:          st.Admin,
		Grant:          st.Grant,
	})
}

// ── Cases ────────────────────────────────────────────────────────────────────

func (s *Server) handleInitializeCase(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req initializeCaseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	addr, err := s.gateway.Cases.InitializeCase(r.Context(), caller, req.CaseID, req.Location)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addressResponse{Address: addr})
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}

	c, err := s.gateway.Cases.GetCase(r.Context(), addr)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAppendSceneLog(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}
	var req sceneLogRequest
	if !decodeBody(w, r, &req) {
		return
	}

	logAddr, err := s.gateway.Cases.AppendSceneLog(r.Context(), caller, addr, req.Timestamp, req.Description, req.OfficerID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addressResponse{Address: logAddr})
}

func (s *Server) handleListSceneLogs(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}

	refs, err := s.gateway.Cases.ListSceneLogs(r.Context(), addr)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Addresses: refs})
}

func (s *Server) handleAppendEvidence(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}
	var req evidenceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	evAddr, err := s.gateway.Cases.AppendEvidence(r.Context(), caller, addr, req.EvidenceID, req.Description, req.LocationFound)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addressResponse{Address: evAddr})
}

func (s *Server) handleListEvidence(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}

	refs, err := s.gateway.Cases.ListEvidence(r.Context(), addr)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Addresses: refs})
}

// ── Evidence ─────────────────────────────────────────────────────────────────

func (s *Server) handleAppendEvidenceLog(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}
	var req evidenceLogRequest
	if !decodeBody(w, r, &req) {
		return
	}

	logAddr, err := s.gateway.Evidence.AppendEvidenceLog(r.Context(), caller, addr, req.Timestamp, req.Action, req.Handler, req.Notes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addressResponse{Address: logAddr})
}

func (s *Server) handleListEvidenceLogs(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}

	refs, err := s.gateway.Evidence.ListEvidenceLogs(r.Context(), addr)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Addresses: refs})
}

// ── Records ──────────────────────────────────────────────────────────────────

func (s *Server) handleFetchRecord(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}

	kind, rec, err := s.gateway.FetchRecord(r.Context(), addr)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recordResponse{Address: addr, Kind: kind, Record: rec})
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func (s *Server) callerIdentity(w http.ResponseWriter, r *http.Request) (types.Identity, bool) {
	raw := r.Header.Get(identityHeader)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing_identity", identityHeader+" header is required")
		return types.Identity{}, false
	}
	id, err := types.ParseIdentity(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_identity", "identity must be 64 hex characters")
		return types.Identity{}, false
	}
	return id, true
}

func pathAddress(w http.ResponseWriter, r *http.Request) (types.Address, bool) {
	addr, err := types.ParseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_address", "address must be 64 hex characters")
		return types.Address{}, false
	}
	return addr, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrTooLong):
		writeError(w, http.StatusBadRequest, "too_long", err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "unauthorized", "caller lacks required access")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no committed record at address")
	case errors.Is(err, service.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already_exists", "a record is already committed at this address")
	case errors.Is(err, service.ErrConflict):
		// Retryable: the caller should re-read state and reissue.
		writeError(w, http.StatusConflict, "conflict", "write raced with another commit; retry")
	default:
		s.logger.Printf("%s %s error: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}
