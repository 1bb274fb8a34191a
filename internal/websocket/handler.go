package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"rollcall/internal/attendance"
	"rollcall/internal/config"
	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

// Reply messages for the marking flow. The wording is part of the wire
// contract.
const (
	msgMarkedSuccess   = "Attendance marked successfully"
	msgAlreadyMarked   = "Attendance already marked"
	msgNoActiveSession = "No active session for this class"
	msgNotEnrolled     = "You are not enrolled in this class"
	msgInvalidFormat   = "Invalid message format"
	msgInternalError   = "Internal server error"
)

// Handler terminates student websocket connections, authenticates each one
// once, and relays mark_attendance messages into the marking engine.
type Handler struct {
	verifier interfaces.IdentityVerifier
	engine   *attendance.Engine
	cfg      *config.WebSocketConfig
	upgrader websocket.Upgrader
}

// NewHandler creates a websocket handler.
func NewHandler(verifier interfaces.IdentityVerifier, engine *attendance.Engine, cfg *config.WebSocketConfig) *Handler {
	return &Handler{
		verifier: verifier,
		engine:   engine,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}
}

// HandleWebSocket handles a connection request on the attendance endpoint.
// The bearer credential travels as a token query parameter because no
// structured header survives the upgrade handshake from browser clients.
// Authentication failures close the connection with a 1008 frame; only
// students may hold a marking connection.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn := NewConnection(wsConn, h.cfg.BufferSize, h.cfg.WriteTimeout)

	token := r.URL.Query().Get("token")
	if token == "" {
		conn.ClosePolicyViolation(CloseReasonTokenRequired)
		return
	}

	userID, role, err := h.verifier.Verify(token)
	if err != nil {
		conn.ClosePolicyViolation(CloseReasonInvalidToken)
		return
	}

	if role != types.RoleStudent {
		conn.ClosePolicyViolation(CloseReasonStudentsOnly)
		return
	}

	conn.SetCredentials(userID, role)
	log.Printf("Student %s connected", userID)

	h.readLoop(conn)
}

// readLoop processes inbound messages in receipt order until the remote
// end closes the connection. Every recognized mark_attendance message gets
// exactly one reply; anything else gets an invalid-format error and the
// connection stays open.
func (h *Handler) readLoop(conn *Connection) {
	defer func() {
		_ = conn.Close()
		log.Printf("Student %s disconnected", conn.UserID())
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var req types.MarkRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Type != types.MessageTypeMarkAttendance {
			h.reply(conn, types.ReplyTypeError, msgInvalidFormat)
			continue
		}

		h.dispatch(conn, req.ClassID)
	}
}

// dispatch runs the marking engine and forwards its outcome as the single
// reply. Store failures map to a generic error reply; nothing here is
// fatal to the connection or the process.
func (h *Handler) dispatch(conn *Connection, classID string) {
	outcome, err := h.engine.Mark(context.Background(), conn.UserID(), classID)
	if err != nil {
		log.Printf("Marking failed: student=%s class=%s: %v", conn.UserID(), classID, err)
		h.reply(conn, types.ReplyTypeError, msgInternalError)
		return
	}

	switch outcome {
	case attendance.Success:
		h.reply(conn, types.ReplyTypeSuccess, msgMarkedSuccess)
	case attendance.AlreadyMarked:
		h.reply(conn, types.ReplyTypeInfo, msgAlreadyMarked)
	case attendance.NoActiveSession:
		h.reply(conn, types.ReplyTypeError, msgNoActiveSession)
	case attendance.NotEnrolled:
		h.reply(conn, types.ReplyTypeError, msgNotEnrolled)
	}
}

func (h *Handler) reply(conn *Connection, replyType, message string) {
	if err := conn.WriteJSON(types.Reply{Type: replyType, Message: message}); err != nil {
		log.Printf("Failed to send reply to %s: %v", conn.UserID(), err)
	}
}
