package httpserver

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/artledger/nft-registry-backend/interfaces"
	"github.com/artledger/nft-registry-backend/metrics"
)

// Header constants used in HTTP requests.
const (
	// CallerHeader carries the hex-encoded principal performing the
	// operation. Set by the authenticating gateway in front of the service.
	CallerHeader = "X-Artledger-Caller"

	// maxBodySize is the maximum allowed request body size (1MB).
	maxBodySize = 1024 * 1024
)

// CapabilityQuerier exposes the capability selectors the ledger registered.
type CapabilityQuerier interface {
	Selectors() []interfaces.CapabilitySelector
}

// Handler processes HTTP requests against the token ledger and access
// registry. The metadata backend and metrics collector are optional; nil
// disables the corresponding surface.
type Handler struct {
	ledger   interfaces.TokenLedger
	access   interfaces.AccessRegistry
	caps     CapabilityQuerier
	metadata interfaces.StorageBackend
	metrics  *metrics.Collector
	log      *slog.Logger
}

// NewHandler creates an HTTP request handler with the given collaborators.
func NewHandler(ledger interfaces.TokenLedger, access interfaces.AccessRegistry, caps CapabilityQuerier, metadata interfaces.StorageBackend, collector *metrics.Collector, log *slog.Logger) *Handler {
	return &Handler{
		ledger:   ledger,
		access:   access,
		caps:     caps,
		metadata: metadata,
		metrics:  collector,
		log:      log,
	}
}

type mintRequest struct {
	To  string `json:"to"`
	URI string `json:"uri"`
}

type transferRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	TokenID uint64 `json:"token_id"`
	Data    []byte `json:"data,omitempty"`
}

type approveRequest struct {
	Approved string `json:"approved"`
	TokenID  uint64 `json:"token_id"`
}

type operatorRequest struct {
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

type burnRequest struct {
	TokenID uint64 `json:"token_id"`
}

type uriRequest struct {
	URI string `json:"uri"`
}

type roleRequest struct {
	Role      string `json:"role"`
	Principal string `json:"principal"`
}

type roleAdminRequest struct {
	Role      string `json:"role"`
	AdminRole string `json:"admin_role"`
}

type affiliationRequest struct {
	Gallery string `json:"gallery"`
	Artist  string `json:"artist"`
}

// HandleMint processes POST /api/ledger/mint.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req mintRequest
	if !h.decode(w, r, &req) {
		return
	}
	to, err := interfaces.NewPrincipalFromHex(req.To)
	if err != nil {
		h.badRequest(w, "to", err)
		return
	}

	id, err := h.ledger.Mint(caller, to, req.URI)
	h.record("mint", err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.TokensMinted.Inc()
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{"token_id": uint64(id)})
}

// HandleTransfer processes POST /api/ledger/transfer.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	h.handleTransfer(w, r, false)
}

// HandleSafeTransfer processes POST /api/ledger/safe-transfer.
func (h *Handler) HandleSafeTransfer(w http.ResponseWriter, r *http.Request) {
	h.handleTransfer(w, r, true)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request, safe bool) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if !h.decode(w, r, &req) {
		return
	}
	from, err := interfaces.NewPrincipalFromHex(req.From)
	if err != nil {
		h.badRequest(w, "from", err)
		return
	}
	to, err := interfaces.NewPrincipalFromHex(req.To)
	if err != nil {
		h.badRequest(w, "to", err)
		return
	}

	id := interfaces.TokenID(req.TokenID)
	op := "transfer"
	if safe {
		op = "safe-transfer"
		err = h.ledger.SafeTransferFrom(caller, from, to, id, req.Data)
	} else {
		err = h.ledger.TransferFrom(caller, from, to, id)
	}
	h.record(op, err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.TokensTransferred.Inc()
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "transferred"})
}

// HandleApprove processes POST /api/ledger/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req approveRequest
	if !h.decode(w, r, &req) {
		return
	}

	// Empty approved clears the slot.
	approved := interfaces.ZeroPrincipal
	if req.Approved != "" {
		var err error
		approved, err = interfaces.NewPrincipalFromHex(req.Approved)
		if err != nil {
			h.badRequest(w, "approved", err)
			return
		}
	}

	err := h.ledger.Approve(caller, approved, interfaces.TokenID(req.TokenID))
	h.record("approve", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "approved"})
}

// HandleSetOperator processes POST /api/ledger/operators.
func (h *Handler) HandleSetOperator(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req operatorRequest
	if !h.decode(w, r, &req) {
		return
	}
	operator, err := interfaces.NewPrincipalFromHex(req.Operator)
	if err != nil {
		h.badRequest(w, "operator", err)
		return
	}

	err = h.ledger.SetApprovalForAll(caller, operator, req.Approved)
	h.record("set-operator", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// HandleBurn processes POST /api/ledger/burn.
func (h *Handler) HandleBurn(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req burnRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.ledger.Burn(caller, interfaces.TokenID(req.TokenID))
	h.record("burn", err)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.TokensBurned.Inc()
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "burned"})
}

// HandleSetTokenURI processes PUT /api/ledger/tokens/{token_id}/uri.
func (h *Handler) HandleSetTokenURI(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.tokenID(w, r)
	if !ok {
		return
	}

	var req uriRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.ledger.SetTokenURI(caller, id, req.URI)
	h.record("set-token-uri", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "updated"})
}

// HandleTokenInfo processes GET /api/ledger/tokens/{token_id}.
func (h *Handler) HandleTokenInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tokenID(w, r)
	if !ok {
		return
	}

	owner, err := h.ledger.OwnerOf(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	uri, err := h.ledger.TokenURI(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	approved, err := h.ledger.GetApproved(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	count, err := h.ledger.TokenTransferCount(id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := map[string]any{
		"token_id":       uint64(id),
		"owner":          owner.String(),
		"uri":            uri,
		"transfer_count": count,
	}
	if !approved.IsZero() {
		resp["approved"] = approved.String()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleBalance processes GET /api/ledger/balances/{address}.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	owner, err := interfaces.NewPrincipalFromHex(chi.URLParam(r, "address"))
	if err != nil {
		h.badRequest(w, "address", err)
		return
	}

	balance, err := h.ledger.BalanceOf(owner)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"address": owner.String(),
		"balance": balance,
	})
}

// HandleSupply processes GET /api/ledger/supply.
func (h *Handler) HandleSupply(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"name":          h.ledger.Name(),
		"symbol":        h.ledger.Symbol(),
		"total_supply":  h.ledger.TotalSupply(),
		"last_token_id": uint64(h.ledger.LastTokenID()),
	})
}

// HandleCapabilities processes GET /api/ledger/capabilities.
func (h *Handler) HandleCapabilities(w http.ResponseWriter, r *http.Request) {
	selectors := h.caps.Selectors()
	out := make([]string, 0, len(selectors))
	for _, sel := range selectors {
		out = append(out, sel.String())
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"capabilities": out})
}

// HandleStoreMetadata processes POST /api/metadata. The raw body is pinned
// to the metadata storage and its content id returned, for use in a token
// URI before minting.
func (h *Handler) HandleStoreMetadata(w http.ResponseWriter, r *http.Request) {
	if h.metadata == nil {
		http.Error(w, "metadata storage not configured", http.StatusNotImplemented)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.badRequest(w, "body", err)
		return
	}
	if len(body) == 0 {
		http.Error(w, "empty metadata body", http.StatusBadRequest)
		return
	}

	id, err := h.metadata.Store(r.Context(), body, interfaces.MetadataContent)
	h.record("store-metadata", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{"content_id": fmt.Sprintf("%x", id)})
}

// HandleFetchMetadata processes GET /api/metadata/{id}.
func (h *Handler) HandleFetchMetadata(w http.ResponseWriter, r *http.Request) {
	if h.metadata == nil {
		http.Error(w, "metadata storage not configured", http.StatusNotImplemented)
		return
	}

	idHex := chi.URLParam(r, "id")
	idBytes, err := hex.DecodeString(idHex)
	if err != nil || len(idBytes) != 32 {
		http.Error(w, "invalid content id", http.StatusBadRequest)
		return
	}
	var id interfaces.ContentID
	copy(id[:], idBytes)

	data, err := h.metadata.Fetch(r.Context(), id, interfaces.MetadataContent)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// HandleGrantRole processes POST /api/access/roles; HandleRevokeRole the
// DELETE with the same body shape.
func (h *Handler) HandleGrantRole(w http.ResponseWriter, r *http.Request) {
	h.handleRoleMutation(w, r, true)
}

// HandleRevokeRole processes DELETE /api/access/roles.
func (h *Handler) HandleRevokeRole(w http.ResponseWriter, r *http.Request) {
	h.handleRoleMutation(w, r, false)
}

func (h *Handler) handleRoleMutation(w http.ResponseWriter, r *http.Request, grant bool) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req roleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := interfaces.ParseRole(req.Role)
	if err != nil {
		h.writeError(w, err)
		return
	}
	principal, err := interfaces.NewPrincipalFromHex(req.Principal)
	if err != nil {
		h.badRequest(w, "principal", err)
		return
	}

	if grant {
		err = h.access.GrantRole(caller, role, principal)
		h.record("grant-role", err)
		if err == nil && h.metrics != nil {
			h.metrics.RoleGrants.Inc()
		}
	} else {
		err = h.access.RevokeRole(caller, role, principal)
		h.record("revoke-role", err)
		if err == nil && h.metrics != nil {
			h.metrics.RoleRevokes.Inc()
		}
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// HandleRoles processes GET /api/access/roles/{address}.
func (h *Handler) HandleRoles(w http.ResponseWriter, r *http.Request) {
	principal, err := interfaces.NewPrincipalFromHex(chi.URLParam(r, "address"))
	if err != nil {
		h.badRequest(w, "address", err)
		return
	}

	var held []string
	for _, role := range []interfaces.Role{
		interfaces.RoleAdministrator,
		interfaces.RoleCreator,
		interfaces.RoleGallery,
		interfaces.RoleContractWhitelist,
	} {
		if h.access.HasRole(role, principal) {
			held = append(held, role.String())
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"principal": principal.String(),
		"roles":     held,
	})
}

// HandleReassignRoleAdmin processes POST /api/access/role-admin.
func (h *Handler) HandleReassignRoleAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req roleAdminRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := interfaces.ParseRole(req.Role)
	if err != nil {
		h.writeError(w, err)
		return
	}
	adminRole, err := interfaces.ParseRole(req.AdminRole)
	if err != nil {
		h.writeError(w, err)
		return
	}

	err = h.access.ReassignRoleAdmin(caller, role, adminRole)
	h.record("reassign-role-admin", err)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// HandleAddAffiliation processes POST /api/access/affiliations;
// HandleRemoveAffiliation the DELETE with the same body shape.
func (h *Handler) HandleAddAffiliation(w http.ResponseWriter, r *http.Request) {
	h.handleAffiliationMutation(w, r, true)
}

// HandleRemoveAffiliation processes DELETE /api/access/affiliations.
func (h *Handler) HandleRemoveAffiliation(w http.ResponseWriter, r *http.Request) {
	h.handleAffiliationMutation(w, r, false)
}

func (h *Handler) handleAffiliationMutation(w http.ResponseWriter, r *http.Request, add bool) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req affiliationRequest
	if !h.decode(w, r, &req) {
		return
	}
	gallery, err := interfaces.NewPrincipalFromHex(req.Gallery)
	if err != nil {
		h.badRequest(w, "gallery", err)
		return
	}
	artist, err := interfaces.NewPrincipalFromHex(req.Artist)
	if err != nil {
		h.badRequest(w, "artist", err)
		return
	}

	if add {
		err = h.access.AddAffiliation(caller, gallery, artist)
		h.record("add-affiliation", err)
	} else {
		err = h.access.RemoveAffiliation(caller, gallery, artist)
		h.record("remove-affiliation", err)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// HandleAffiliations processes GET /api/access/affiliations/{address}. Both
// directions are returned; for a gallery the artists list is populated, for
// an artist the galleries list.
func (h *Handler) HandleAffiliations(w http.ResponseWriter, r *http.Request) {
	principal, err := interfaces.NewPrincipalFromHex(chi.URLParam(r, "address"))
	if err != nil {
		h.badRequest(w, "address", err)
		return
	}

	artists := h.access.AffiliatedArtists(principal)
	galleries := h.access.AffiliatedGalleries(principal)

	artistStrs := make([]string, 0, len(artists))
	for _, p := range artists {
		artistStrs = append(artistStrs, p.String())
	}
	galleryStrs := make([]string, 0, len(galleries))
	for _, p := range galleries {
		galleryStrs = append(galleryStrs, p.String())
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"principal": principal.String(),
		"artists":   artistStrs,
		"galleries": galleryStrs,
	})
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (interfaces.Principal, bool) {
	raw := r.Header.Get(CallerHeader)
	if raw == "" {
		http.Error(w, "missing "+CallerHeader+" header", http.StatusUnauthorized)
		return interfaces.ZeroPrincipal, false
	}

	caller, err := interfaces.NewPrincipalFromHex(raw)
	if err != nil {
		h.log.Debug("Invalid caller header", "err", err)
		http.Error(w, "invalid "+CallerHeader+" header", http.StatusBadRequest)
		return interfaces.ZeroPrincipal, false
	}
	return caller, true
}

func (h *Handler) tokenID(w http.ResponseWriter, r *http.Request) (interfaces.TokenID, bool) {
	raw := chi.URLParam(r, "token_id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		http.Error(w, "invalid token id", http.StatusBadRequest)
		return 0, false
	}
	return interfaces.TokenID(id), true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := io.LimitReader(r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) badRequest(w http.ResponseWriter, field string, err error) {
	http.Error(w, fmt.Sprintf("invalid %s: %v", field, err), http.StatusBadRequest)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "err", err)
	}
	h.writeJSON(w, status, map[string]any{"error": err.Error()})
}

func (h *Handler) record(op string, err error) {
	if h.metrics != nil {
		h.metrics.RecordOperation(op, err)
	}
}

// statusForError maps ledger error conditions onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, interfaces.ErrNonExistentToken),
		errors.Is(err, interfaces.ErrNotGranted),
		errors.Is(err, interfaces.ErrNotAffiliated),
		errors.Is(err, interfaces.ErrContentNotFound):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrAlreadyGranted),
		errors.Is(err, interfaces.ErrDuplicateAffiliation):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrRecipientRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, interfaces.ErrZeroAddress),
		errors.Is(err, interfaces.ErrInvalidTokenID),
		errors.Is(err, interfaces.ErrInvalidRole),
		errors.Is(err, interfaces.ErrSelfApproval),
		errors.Is(err, interfaces.ErrRoleConflict):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
