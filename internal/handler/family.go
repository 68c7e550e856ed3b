package handler

import (
	"log/slog"
	"net/http"

	"github.com/mlaurel/hearthledger/internal/apperrors"
	"github.com/mlaurel/hearthledger/internal/auth"
	"github.com/mlaurel/hearthledger/internal/family"
	ws "github.com/mlaurel/hearthledger/internal/websocket"
)

type FamilyHandler struct {
	familySvc *family.Service
	hub       *ws.Hub
	logger    *slog.Logger
}

func NewFamilyHandler(familySvc *family.Service, hub *ws.Hub, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{familySvc: familySvc, hub: hub, logger: logger}
}

func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	fam, err := h.familySvc.CreateFamily(r.Context(), auth.AccountID(r.Context()), req.Name)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("family", "created", fam.ID, nil))
	respondJSON(w, http.StatusCreated, fam)
}

func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	families, err := h.familySvc.Families(r.Context(), auth.AccountID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, families)
}

func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	fam, err := h.familySvc.FamilyWithMembers(r.Context(), auth.AccountID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, fam)
}

func (h *FamilyHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	invite, err := h.familySvc.CreateInvite(r.Context(), auth.AccountID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("invite", "created", invite.ID, map[string]any{
		"family_id": invite.FamilyID,
	}))
	respondJSON(w, http.StatusCreated, map[string]any{
		"invite": invite,
		"link":   h.familySvc.InviteLink(invite.ID),
	})
}

// GetInvite is the public invite landing lookup: it shows the family name and
// whether the invite can still be used, without requiring a session.
func (h *FamilyHandler) GetInvite(w http.ResponseWriter, r *http.Request) {
	invite, err := h.familySvc.Invite(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"family_name": invite.FamilyName,
		"expires_at":  invite.ExpiresAt,
		"acceptable":  h.familySvc.InviteAcceptable(invite),
	})
}

func (h *FamilyHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	userID := auth.AccountID(r.Context())
	fam, err := h.familySvc.AcceptInvite(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("family", "member_joined", fam.ID, map[string]any{
		"user_id": userID,
	}))
	respondJSON(w, http.StatusOK, fam)
}

func (h *FamilyHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	familyID := r.PathValue("id")
	memberID := r.PathValue("member_id")
	if memberID == "" {
		respondError(w, h.logger, apperrors.New(apperrors.CodeInvalidArgument, "member id is required"))
		return
	}

	if err := h.familySvc.RemoveMember(r.Context(), auth.AccountID(r.Context()), familyID, memberID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("family", "member_removed", familyID, map[string]any{
		"user_id": memberID,
	}))
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *FamilyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	familyID := r.PathValue("id")
	userID := auth.AccountID(r.Context())

	if err := h.familySvc.Leave(r.Context(), userID, familyID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ws.NewMessage("family", "member_left", familyID, map[string]any{
		"user_id": userID,
	}))
	respondJSON(w, http.StatusNoContent, nil)
}
