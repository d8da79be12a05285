package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/coder/websocket"
)

// Frame is the reply written for each WebSocket message.
type Frame struct {
	Status int    `json:"status"`
	Reply  string `json:"reply,omitempty"`
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// WebSocketHandler serves GET /chat/ws. Each text frame carries a Request
// and is answered with one Frame. The source key is fixed at upgrade time.
type WebSocketHandler struct {
	chat *Handler

	// AcceptOptions are passed to websocket.Accept.
	AcceptOptions *websocket.AcceptOptions

	// IdleTimeout closes a connection that sends nothing for this long.
	IdleTimeout time.Duration
}

// WebSocket returns a WebSocket front end over h. It accepts same-origin
// upgrades only; set AcceptOptions from AcceptOrigins to allow others.
func (h *Handler) WebSocket() *WebSocketHandler {
	return &WebSocketHandler{
		chat:          h,
		AcceptOptions: &websocket.AcceptOptions{},
		IdleTimeout:   5 * time.Minute,
	}
}

// AcceptOrigins builds upgrade options from a CORS origin list. "*" allows
// any origin; otherwise each origin's host becomes an OriginPatterns entry.
func AcceptOrigins(origins []string) *websocket.AcceptOptions {
	if slices.Contains(origins, "*") {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}

	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, o)
	}
	return &websocket.AcceptOptions{OriginPatterns: patterns}
}

// ServeHTTP implements http.Handler.
func (ws *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h := ws.chat
	ctx := r.Context()
	source := SourceKey(r, h.cfg.TrustForwardedHeaders)

	conn, err := websocket.Accept(w, r, ws.AcceptOptions)
	if err != nil {
		h.logger.WarnContext(ctx, "websocket accept error", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected exit")
	conn.SetReadLimit(h.cfg.MaxBodyBytes)

	h.logger.DebugContext(ctx, "websocket connected")

	for {
		readCtx, cancel := context.WithTimeout(ctx, ws.IdleTimeout)
		typ, data, err := conn.Read(readCtx)
		cancel()
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				h.logger.DebugContext(ctx, "websocket closed")
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if errors.Is(err, context.DeadlineExceeded) {
				conn.Close(websocket.StatusPolicyViolation, "idle timeout")
				return
			}
			h.logger.DebugContext(ctx, "websocket read failed", "error", err)
			return
		}

		var frame Frame
		if typ != websocket.MessageText {
			frame = errorFrame(ErrInvalidBody)
		} else {
			frame = ws.handle(ctx, source, data)
		}

		out, _ := json.Marshal(frame)
		if err := conn.Write(ctx, websocket.MessageText, out); err != nil {
			h.logger.DebugContext(ctx, "websocket write failed", "error", err)
			return
		}
	}
}

func (ws *WebSocketHandler) handle(ctx context.Context, source string, data []byte) Frame {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		ws.chat.recorder.RecordChat(outcome(ErrInvalidBody))
		return errorFrame(ErrInvalidBody)
	}

	res, err := ws.chat.Process(ctx, source, req)
	if err != nil {
		return errorFrame(err)
	}
	return Frame{Status: http.StatusOK, Reply: res.Reply}
}

func errorFrame(err error) Frame {
	body := ErrorBody(err)
	return Frame{
		Status: StatusFor(err),
		Error:  body.Error,
		Detail: body.Detail,
	}
}
