package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noid254/nikosoko/internal/domain"
	mw "github.com/noid254/nikosoko/internal/http/middleware"
	"github.com/noid254/nikosoko/internal/http/response"
)

// listEvents serves GET /events?category=&q=
func (h *Handlers) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	events, err := h.svc.Events.List(r.Context(), domain.EventCategory(q.Get("category")), q.Get("q"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"events": events})
}

func (h *Handlers) createEvent(w http.ResponseWriter, r *http.Request) {
	var in domain.EventRequest
	if !decode(w, r, &in) {
		return
	}
	e, err := h.svc.Events.Create(r.Context(), mw.SessionID(r), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, e)
}

func (h *Handlers) purchaseTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Events.PurchaseTicket(r.Context(), mw.SessionID(r), id, r.Header.Get("Idempotency-Key"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, t)
}

func (h *Handlers) inviteGuests(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in domain.InviteGuestsRequest
	if !decode(w, r, &in) {
		return
	}
	res, err := h.svc.Events.InviteGuests(r.Context(), mw.SessionID(r), id, in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusAccepted, res)
}

func (h *Handlers) eventReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rem, err := h.svc.Events.Reminder(r.Context(), mw.SessionID(r), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, rem)
}

func (h *Handlers) myTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.svc.Events.MyTickets(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"tickets": tickets})
}

func (h *Handlers) gateDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.svc.Gatepass.Dashboard(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, dash)
}

func (h *Handlers) createInvitation(w http.ResponseWriter, r *http.Request) {
	var in domain.InvitationRequest
	if !decode(w, r, &in) {
		return
	}
	inv, err := h.svc.Gatepass.Create(r.Context(), mw.SessionID(r), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, inv)
}

func (h *Handlers) cancelInvitation(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.Gatepass.Cancel(r.Context(), mw.SessionID(r), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, inv)
}

func (h *Handlers) checkIn(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AccessCode string `json:"access_code"`
	}
	if !decode(w, r, &in) {
		return
	}
	inv, err := h.svc.Gatepass.CheckIn(r.Context(), mw.SessionID(r), in.AccessCode)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, inv)
}

func (h *Handlers) myCatalogue(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.Catalogue.MyItems(r.Context(), mw.SessionID(r), r.URL.Query().Get("q"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, page)
}

func (h *Handlers) addCatalogueItem(w http.ResponseWriter, r *http.Request) {
	var in domain.CatalogueItemRequest
	if !decode(w, r, &in) {
		return
	}
	item, err := h.svc.Catalogue.Add(r.Context(), mw.SessionID(r), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, item)
}

func (h *Handlers) deleteCatalogueItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Catalogue.Delete(r.Context(), mw.SessionID(r), id); err != nil {
		response.FromError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) setCatalogueBanner(w http.ResponseWriter, r *http.Request) {
	var in struct {
		BannerURL string `json:"banner_url"`
	}
	if !decode(w, r, &in) {
		return
	}
	p, err := h.svc.Catalogue.SetBanner(r.Context(), mw.SessionID(r), in.BannerURL)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"provider_id": p.ID, "banner_url": p.CatalogueBannerURL})
}

func (h *Handlers) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.Documents.List(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"documents": docs})
}

func (h *Handlers) createDocument(w http.ResponseWriter, r *http.Request) {
	var in domain.DocumentRequest
	if !decode(w, r, &in) {
		return
	}
	doc, err := h.svc.Documents.Create(r.Context(), mw.SessionID(r), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, doc)
}

func (h *Handlers) getAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.svc.Documents.Assets(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, assets)
}

func (h *Handlers) saveAssets(w http.ResponseWriter, r *http.Request) {
	var in domain.BusinessAssets
	if !decode(w, r, &in) {
		return
	}
	assets, err := h.svc.Documents.SaveAssets(r.Context(), mw.SessionID(r), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, assets)
}

func (h *Handlers) listInbox(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.Inbox.List(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, map[string]any{"messages": msgs})
}

func (h *Handlers) openMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	msg, err := h.svc.Inbox.Open(r.Context(), mw.SessionID(r), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, msg)
}
