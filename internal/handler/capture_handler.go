package handler

import (
	"net/http"

	"vault-gateway/internal/capture"
	"vault-gateway/internal/model"
	"vault-gateway/internal/service"
)

type CaptureHandler struct {
	capture *capture.Controller
	tokens  *service.TokenService
}

func NewCaptureHandler(controller *capture.Controller, tokens *service.TokenService) *CaptureHandler {
	return &CaptureHandler{capture: controller, tokens: tokens}
}

// sanitizeSession strips the credential bundle before a session crosses the
// HTTP boundary.
func sanitizeSession(sess model.AuthSession) model.AuthSession {
	sess.AuthData = nil
	return sess
}

func (h *CaptureHandler) Start(w http.ResponseWriter, r *http.Request) {
	sess := h.capture.Start()
	writeSuccess(w, http.StatusOK, sanitizeSession(sess), nil)
}

func (h *CaptureHandler) Status(w http.ResponseWriter, r *http.Request) {
	sess := h.capture.Status()
	if sess == nil {
		writeSuccess(w, http.StatusOK, model.AuthSession{Status: model.SessionNone}, nil)
		return
	}
	writeSuccess(w, http.StatusOK, sanitizeSession(*sess), nil)
}

func (h *CaptureHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.capture.Close()
	writeSuccess(w, http.StatusOK, map[string]string{"status": "closed"}, nil)
}

func (h *CaptureHandler) Token(w http.ResponseWriter, r *http.Request) {
	summary, err := h.tokens.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, summary, nil)
}
