package handlers

import (
	"net/http"

	mw "github.com/noid254/nikosoko/internal/http/middleware"
	"github.com/noid254/nikosoko/internal/http/response"
)

func (h *Handlers) startSession(w http.ResponseWriter, r *http.Request) {
	login, err := h.svc.Auth.Start(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.Created(w, toLoginResponse(login))
}

func (h *Handlers) currentSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Auth.Session(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, toSessionResponse(sess))
}

func (h *Handlers) submitPhone(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Phone string `json:"phone"`
	}
	if !decode(w, r, &in) {
		return
	}
	sess, err := h.svc.Auth.SubmitPhone(r.Context(), mw.SessionID(r), in.Phone)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, toSessionResponse(sess))
}

func (h *Handlers) sendOtp(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.Auth.SendOtp(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusAccepted, toSessionResponse(sess))
}

func (h *Handlers) verifyOtp(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.Code == "" {
		response.BadRequest(w, "code is required")
		return
	}
	login, err := h.svc.Auth.VerifyOtp(r.Context(), mw.SessionID(r), in.Code)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, toLoginResponse(login))
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	login, err := h.svc.Auth.Logout(r.Context(), mw.SessionID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, toLoginResponse(login))
}
