package chat

import (
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/health-assistant/backend/internal/handler/submission"
	"github.com/zhouzirui/health-assistant/backend/internal/service/assistant"
	chatService "github.com/zhouzirui/health-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/health-assistant/backend/internal/view"
	"github.com/zhouzirui/health-assistant/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc        *chatService.Service
	assistantSvc   *assistant.Service
	maxUploadBytes int64
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, assistantSvc *assistant.Service, maxUploadBytes int64) *Handler {
	return &Handler{
		chatSvc:        chatSvc,
		assistantSvc:   assistantSvc,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes 注册会话读取相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Get("/session/{sessionID}/messages", h.handleListMessages)
	r.Get("/session/{sessionID}/bubbles", h.handleListBubbles)
}

// RegisterSubmitRoutes 注册提交问题的路由，限流中间件由调用方决定
func (h *Handler) RegisterSubmitRoutes(r chi.Router) {
	r.Post("/session/{sessionID}/ask", h.handleAsk)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		utils.RespondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	turns, err := h.chatSvc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, turns)
}

func (h *Handler) handleListBubbles(w http.ResponseWriter, r *http.Request) {
	turns, err := h.chatSvc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, view.Render(turns))
}

// handleAsk 同时接受 multipart 表单和携带 base64 图片的 JSON 请求
func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var (
		sub assistant.Submission
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		sub, err = submission.FromMultipart(w, r, sessionID, h.maxUploadBytes)
	} else {
		sub, err = submission.FromJSON(w, r, sessionID, h.maxUploadBytes)
	}
	if err != nil {
		utils.RespondErr(w, err)
		return
	}

	reply, err := h.assistantSvc.Submit(r.Context(), sub)
	if err != nil {
		utils.RespondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, reply)
}
