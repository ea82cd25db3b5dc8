package page

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/health-assistant/backend/internal/handler/submission"
	"github.com/zhouzirui/health-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/health-assistant/backend/internal/model/language"
	"github.com/zhouzirui/health-assistant/backend/internal/service/assistant"
	chatService "github.com/zhouzirui/health-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/health-assistant/backend/internal/view"
	"github.com/zhouzirui/health-assistant/backend/pkg/log"
	"github.com/zhouzirui/health-assistant/backend/pkg/response"
	"github.com/zhouzirui/health-assistant/backend/pkg/utils"
)

const SessionCookie = "healthdesk_session"

// Handler serves the server-rendered chat page. The browsing session is
// identified by a cookie; the language is carried in the query string.
type Handler struct {
	chatSvc        *chatService.Service
	assistantSvc   *assistant.Service
	maxUploadBytes int64
}

func New(chatSvc *chatService.Service, assistantSvc *assistant.Service, maxUploadBytes int64) *Handler {
	return &Handler{
		chatSvc:        chatSvc,
		assistantSvc:   assistantSvc,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
}

func (h *Handler) RegisterSubmitRoutes(r chi.Router) {
	r.Post("/ask", h.handleAsk)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	session, err := h.ensureSession(w, r)
	if err != nil {
		utils.RespondErr(w, err)
		return
	}

	lang, ok := language.Parse(r.URL.Query().Get("lang"))
	if !ok {
		lang = language.English
	}

	h.render(r.Context(), w, http.StatusOK, session.ID, lang, "")
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	session, err := h.ensureSession(w, r)
	if err != nil {
		utils.RespondErr(w, err)
		return
	}

	sub, err := submission.FromMultipart(w, r, session.ID, h.maxUploadBytes)
	if err == nil {
		_, err = h.assistantSvc.Submit(r.Context(), sub)
	}
	if err != nil {
		status := response.StatusOf(err)
		if status >= http.StatusInternalServerError {
			utils.RespondErr(w, err)
			return
		}
		lang := sub.Language
		if lang == "" {
			lang = language.English
		}
		h.render(r.Context(), w, status, session.ID, lang, err.Error())
		return
	}

	http.Redirect(w, r, "/?lang="+url.QueryEscape(string(sub.Language)), http.StatusSeeOther)
}

// ensureSession returns the cookie session, creating one when the cookie is
// missing or points at an expired session.
func (h *Handler) ensureSession(w http.ResponseWriter, r *http.Request) (chat.Session, error) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		session, err := h.chatSvc.GetSession(r.Context(), cookie.Value)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, chatService.ErrSessionNotFound) {
			return chat.Session{}, err
		}
	}

	session, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		return chat.Session{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	log.WithRequestID(r.Context()).WithField("session_id", session.ID).Info("[page] started browsing session")
	return session, nil
}

func (h *Handler) render(ctx context.Context, w http.ResponseWriter, status int, sessionID string, lang language.Code, message string) {
	turns, err := h.chatSvc.LoadTranscript(ctx, sessionID)
	if err != nil {
		utils.RespondErr(w, err)
		return
	}

	var buf bytes.Buffer
	err = view.RenderPage(&buf, view.Page{
		Languages: language.Options(),
		Selected:  lang,
		Bubbles:   view.Render(turns),
		Error:     message,
	})
	if err != nil {
		utils.RespondErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
