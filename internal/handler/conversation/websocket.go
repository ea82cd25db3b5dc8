package conversation

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/zhouzirui/health-assistant/backend/internal/handler/submission"
	"github.com/zhouzirui/health-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/health-assistant/backend/internal/model/language"
	"github.com/zhouzirui/health-assistant/backend/internal/service/assistant"
	chatservice "github.com/zhouzirui/health-assistant/backend/internal/service/chat"
	"github.com/zhouzirui/health-assistant/backend/internal/view"
	"github.com/zhouzirui/health-assistant/backend/pkg/log"
	"github.com/zhouzirui/health-assistant/backend/pkg/response"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	pingInterval = 54 * time.Second
)

// WebSocketHandler runs submissions over a socket and pushes every new turn of
// the session back to the client.
type WebSocketHandler struct {
	chatSvc        *chatservice.Service
	assistantSvc   *assistant.Service
	maxUploadBytes int64
	upgrader       websocket.Upgrader
}

func NewWebSocketHandler(chatSvc *chatservice.Service, assistantSvc *assistant.Service, maxUploadBytes int64) *WebSocketHandler {
	return &WebSocketHandler{
		chatSvc:        chatSvc,
		assistantSvc:   assistantSvc,
		maxUploadBytes: maxUploadBytes,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string              `json:"type"`
	SessionID string              `json:"sessionId"`
	Data      jsoniter.RawMessage `json:"data"`
	Timestamp int64               `json:"timestamp"`
}

// TextMessage asks about typed symptoms.
type TextMessage struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// ImageMessage uploads an image, optionally with text in the same submission.
type ImageMessage struct {
	Filename string `json:"filename"`
	Data     string `json:"data"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

// ConfigMessage changes the connection language.
type ConfigMessage struct {
	Language string `json:"language"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type turnEvent struct {
	Turn   chat.Turn   `json:"turn"`
	Bubble view.Bubble `json:"bubble"`
}

type connectionState struct {
	sessionID string
	language  language.Code

	writeMu sync.Mutex
	conn    *websocket.Conn
}

func (s *connectionState) write(msg outgoingMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Warn(log.Fields{"session_id": s.sessionID, "error": err.Error()}, "[websocket] encode failed")
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Debug(log.Fields{"session_id": s.sessionID, "error": err.Error()}, "[websocket] write failed")
	}
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, err.Error(), response.StatusOf(err))
		return
	}

	lang, ok := language.Parse(r.URL.Query().Get("lang"))
	if !ok {
		lang = language.English
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn(log.Fields{"session_id": sessionID, "error": err.Error()}, "[websocket] upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(h.readLimit())

	log.Info(log.Fields{"session_id": sessionID}, "[websocket] new connection")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	state := &connectionState{sessionID: sessionID, language: lang, conn: conn}

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	transcript, err := h.chatSvc.LoadTranscript(ctx, sessionID)
	if err != nil {
		h.sendError(state, err)
		return
	}

	events, unsubscribe := h.chatSvc.Subscribe(sessionID)
	defer unsubscribe()

	go h.pingLoop(ctx, state)

	state.write(outgoingMessage{
		Type:      "connected",
		SessionID: sessionID,
		Data: map[string]any{
			"language": state.language,
			"bubbles":  view.Render(transcript),
		},
		Timestamp: time.Now().Unix(),
	})

	go h.forwardTurns(ctx, state, events)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn(log.Fields{"session_id": sessionID, "error": err.Error()}, "[websocket] read error")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.sendErrorMessage(state, "invalid message")
			continue
		}
		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendErrorMessage(state, "session mismatch")
			continue
		}

		h.handleMessage(ctx, state, &msg)
	}
}

// readLimit bounds one inbound frame: a base64 image of maxUploadBytes plus
// room for the JSON envelope.
func (h *WebSocketHandler) readLimit() int64 {
	return h.maxUploadBytes*4/3 + 4096
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			h.sendErrorMessage(state, "invalid text payload")
			return
		}
		h.submit(ctx, state, submission.Payload{Language: text.Language, Text: text.Text})
	case "image":
		var img ImageMessage
		if err := json.Unmarshal(msg.Data, &img); err != nil {
			h.sendErrorMessage(state, "invalid image payload")
			return
		}
		h.submit(ctx, state, submission.Payload{
			Language: img.Language,
			Text:     img.Text,
			Image:    &submission.ImagePayload{Filename: img.Filename, Data: img.Data},
		})
	case "config":
		h.handleConfigMessage(state, msg.Data)
	default:
		h.sendErrorMessage(state, "unsupported message type: "+msg.Type)
	}
}

// submit runs one submission; the resulting turns reach the client through the subscription.
func (h *WebSocketHandler) submit(ctx context.Context, state *connectionState, payload submission.Payload) {
	if payload.Language == "" {
		payload.Language = string(state.language)
	}

	sub, err := submission.Build(state.sessionID, payload, h.maxUploadBytes)
	if err != nil {
		h.sendError(state, err)
		return
	}
	if _, err := h.assistantSvc.Submit(ctx, sub); err != nil {
		h.sendError(state, err)
	}
}

func (h *WebSocketHandler) handleConfigMessage(state *connectionState, raw jsoniter.RawMessage) {
	var cfg ConfigMessage
	if err := json.Unmarshal(raw, &cfg); err != nil {
		h.sendErrorMessage(state, "invalid config payload")
		return
	}

	lang, ok := language.Parse(cfg.Language)
	if !ok {
		h.sendError(state, assistant.ErrUnknownLanguage)
		return
	}
	state.language = lang

	log.Debug(log.Fields{"session_id": state.sessionID, "language": lang}, "[websocket] config applied")

	state.write(outgoingMessage{
		Type:      "config",
		SessionID: state.sessionID,
		Data:      map[string]any{"language": state.language},
		Timestamp: time.Now().Unix(),
	})
}

func (h *WebSocketHandler) forwardTurns(ctx context.Context, state *connectionState, events <-chan chat.Turn) {
	for {
		select {
		case <-ctx.Done():
			return
		case turn, ok := <-events:
			if !ok {
				return
			}
			state.write(outgoingMessage{
				Type:      "turn",
				SessionID: state.sessionID,
				Data:      turnEvent{Turn: turn, Bubble: view.RenderTurn(turn)},
				Timestamp: time.Now().Unix(),
			})
		}
	}
}

// sendError hides the detail of internal failures.
func (h *WebSocketHandler) sendError(state *connectionState, err error) {
	status := response.StatusOf(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		log.Error(log.Fields{"session_id": state.sessionID, "error": err.Error()}, "[websocket] submission failed")
		message = http.StatusText(status)
	}
	state.write(outgoingMessage{
		Type:      "error",
		Data:      map[string]any{"message": message, "status": status},
		Timestamp: time.Now().Unix(),
	})
}

func (h *WebSocketHandler) sendErrorMessage(state *connectionState, message string) {
	h.sendError(state, response.NewError(http.StatusBadRequest, message))
}

// pingLoop keeps the connection alive with periodic pings.
func (h *WebSocketHandler) pingLoop(ctx context.Context, state *connectionState) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := state.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
