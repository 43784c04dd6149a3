package handlers

import (
	"net/http"
	"strconv"

	"github.com/noid254/nikosoko/internal/domain"
	mw "github.com/noid254/nikosoko/internal/http/middleware"
	"github.com/noid254/nikosoko/internal/http/response"
	"github.com/noid254/nikosoko/internal/search"
	"github.com/noid254/nikosoko/internal/service"
)

// searchProviders serves GET /providers?q=&filter=category|service&value=&preview=true
func (h *Handlers) searchProviders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quick, ok := search.ParseQuickFilter(q.Get("filter"), q.Get("value"))
	if !ok {
		response.BadRequest(w, "filter must be 'category' or 'service'")
		return
	}
	preview, _ := strconv.ParseBool(q.Get("preview"))

	res, err := h.svc.Directory.Search(r.Context(), service.SearchQuery{
		Quick:   quick,
		Term:    q.Get("q"),
		Preview: preview,
	})
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, res)
}

func (h *Handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.Directory.Categories(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"categories": cats})
}

func (h *Handlers) openProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	page, err := h.svc.Directory.OpenProfile(r.Context(), mw.SessionID(r), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, page)
}

func (h *Handlers) myProfile(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Directory.MyProfile(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, page)
}

func (h *Handlers) createProfile(w http.ResponseWriter, r *http.Request) {
	var in domain.ProfileRequest
	if !decode(w, r, &in) {
		return
	}
	p, err := h.svc.Directory.CreateProfile(r.Context(), mw.SessionID(r), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, p)
}

func (h *Handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in domain.ProfileUpdate
	if !decode(w, r, &in) {
		return
	}
	p, err := h.svc.Directory.UpdateProfile(r.Context(), mw.SessionID(r), id, in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, p)
}

func (h *Handlers) flagProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in struct {
		Reason string `json:"reason"`
	}
	if !decode(w, r, &in) {
		return
	}
	p, err := h.svc.Directory.Flag(r.Context(), mw.SessionID(r), id, in.Reason)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"provider_id": p.ID, "flag_count": p.FlagCount})
}

func (h *Handlers) toggleSaved(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	saved, err := h.svc.Directory.ToggleSaved(r.Context(), mw.SessionID(r), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"provider_id": id, "saved": saved})
}

func (h *Handlers) savedContacts(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Directory.SavedContacts(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"providers": list})
}

func (h *Handlers) providerBanners(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	banners, err := h.svc.Banners.For(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"banners": banners})
}

func (h *Handlers) providerCatalogue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	page, err := h.svc.Catalogue.ProviderCatalogue(r.Context(), id, r.URL.Query().Get("q"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, page)
}
