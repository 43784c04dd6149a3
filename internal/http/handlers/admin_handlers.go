package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noid254/nikosoko/internal/domain"
	mw "github.com/noid254/nikosoko/internal/http/middleware"
	"github.com/noid254/nikosoko/internal/http/response"
	"github.com/noid254/nikosoko/internal/search"
	"github.com/noid254/nikosoko/internal/service"
)

// adminUsers serves GET /admin/users?status=All|Verified|Unverified&q=
func (h *Handlers) adminUsers(w http.ResponseWriter, r *http.Request) {
	status := search.VerificationFilter(r.URL.Query().Get("status"))
	switch status {
	case "":
		status = search.VerificationAll
	case search.VerificationAll, search.VerificationVerified, search.VerificationUnverified:
	default:
		response.BadRequest(w, "status must be All, Verified or Unverified")
		return
	}
	users, err := h.svc.Admin.Users(r.Context(), mw.SessionID(r), status, r.URL.Query().Get("q"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"providers": users})
}

func (h *Handlers) adminFlagged(w http.ResponseWriter, r *http.Request) {
	flagged, err := h.svc.Admin.Flagged(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"providers": flagged})
}

func (h *Handlers) adminDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Admin.Dashboard(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, dash)
}

func (h *Handlers) setVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in domain.VerificationRequest
	if !decode(w, r, &in) {
		return
	}
	p, err := h.svc.Admin.SetVerification(r.Context(), mw.SessionID(r), id, in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, p)
}

func (h *Handlers) deleteProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Admin.DeleteProvider(r.Context(), mw.SessionID(r), id); err != nil {
		response.FromError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) addCategory(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &in) {
		return
	}
	cats, err := h.svc.Admin.AddCategory(r.Context(), mw.SessionID(r), in.Name)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, map[string]any{"categories": cats})
}

func (h *Handlers) deleteCategory(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Admin.DeleteCategory(r.Context(), mw.SessionID(r), chi.URLParam(r, "name"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"categories": cats})
}

func (h *Handlers) broadcast(w http.ResponseWriter, r *http.Request) {
	var in service.BroadcastRequest
	if !decode(w, r, &in) {
		return
	}
	res, err := h.svc.Admin.Broadcast(r.Context(), mw.SessionID(r), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusAccepted, res)
}

func (h *Handlers) listBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.svc.Banners.List(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"banners": banners})
}

func (h *Handlers) addBanner(w http.ResponseWriter, r *http.Request) {
	var in domain.SpecialBanner
	if !decode(w, r, &in) {
		return
	}
	b, err := h.svc.Banners.Add(r.Context(), mw.SessionID(r), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, b)
}

func (h *Handlers) deleteBanner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Banners.Delete(r.Context(), mw.SessionID(r), id); err != nil {
		response.FromError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
