package handlers

import (
	"net/http"

	"github.com/noid254/nikosoko/internal/domain"
	mw "github.com/noid254/nikosoko/internal/http/middleware"
	"github.com/noid254/nikosoko/internal/http/response"
	"github.com/noid254/nikosoko/internal/viewrouter"
)

func (h *Handlers) initiateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in struct {
		Channel string `json:"channel"`
	}
	if !decode(w, r, &in) {
		return
	}
	channel, ok := domain.ParseCTA(in.Channel)
	if !ok {
		response.BadRequest(w, "unknown channel")
		return
	}
	res, err := h.svc.Contacts.Initiate(r.Context(), mw.SessionID(r), id, channel)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, res)
}

func (h *Handlers) rateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in struct {
		Rating int `json:"rating"`
	}
	if !decode(w, r, &in) {
		return
	}
	st, err := h.svc.Contacts.Rate(r.Context(), mw.SessionID(r), id, in.Rating)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, st)
}

func (h *Handlers) dismissContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	st, err := h.svc.Contacts.Dismiss(r.Context(), mw.SessionID(r), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, st)
}

func (h *Handlers) deferRating(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Contacts.Defer(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, st)
}

func (h *Handlers) contactState(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Contacts.State(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, st)
}

func (h *Handlers) currentView(w http.ResponseWriter, r *http.Request) {
	nav, err := h.svc.Navigation.Current(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, nav)
}

func (h *Handlers) navigate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		View string `json:"view"`
	}
	if !decode(w, r, &in) {
		return
	}
	view, err := viewrouter.ParseView(in.View)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	nav, err := h.svc.Navigation.Navigate(r.Context(), mw.SessionID(r), view)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, nav)
}

func (h *Handlers) back(w http.ResponseWriter, r *http.Request) {
	nav, err := h.svc.Navigation.Back(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, nav)
}

func (h *Handlers) openAdmin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Page string `json:"page"`
	}
	if !decode(w, r, &in) {
		return
	}
	var page viewrouter.AdminPage
	if in.Page != "" {
		p, ok := viewrouter.ParseAdminPage(in.Page)
		if !ok {
			response.BadRequest(w, "unknown admin page")
			return
		}
		page = p
	}
	nav, err := h.svc.Navigation.OpenAdmin(r.Context(), mw.SessionID(r), page)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, nav)
}

func (h *Handlers) exitAdmin(w http.ResponseWriter, r *http.Request) {
	nav, err := h.svc.Navigation.ExitAdmin(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, nav)
}
