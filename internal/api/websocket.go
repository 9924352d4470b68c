package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/ipl-winprob/internal/metrics"
	"github.com/yourusername/ipl-winprob/internal/models"
)

const (
	wsMaxMessageBytes = 64 << 10
	wsPongWait        = 60 * time.Second
	wsPingPeriod      = wsPongWait * 9 / 10
	wsWriteWait       = 10 * time.Second
)

// WSReply answers one websocket frame. Exactly one of Prediction and Error is set;
// a rejected snapshot also carries Valid=false.
type WSReply struct {
	Prediction *PredictResponse `json:"prediction,omitempty"`
	Status     int              `json:"status"`
	Valid      *bool            `json:"valid,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// handleWebSocket serves the live feed: every text frame is a match snapshot and
// is answered with one reply frame, in order.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	metrics.WebsocketConnections.Inc()
	defer metrics.WebsocketConnections.Dec()

	conn.SetReadLimit(wsMaxMessageBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.pingLoop(ctx, conn)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.WithError(err).Debug("WebSocket closed")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		reply := s.replyTo(ctx, data)
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.WithError(err).Debug("WebSocket write failed")
			return
		}
	}
}

func (s *Server) replyTo(ctx context.Context, data []byte) WSReply {
	if s.limiter != nil && !s.limiter.Allow() {
		metrics.RecordWebsocketMessage("rate_limited")
		return WSReply{Status: http.StatusTooManyRequests, Error: "rate limit exceeded"}
	}

	var snapshot models.MatchSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		metrics.RecordWebsocketMessage("bad_request")
		return WSReply{Status: http.StatusBadRequest, Error: "invalid JSON frame: " + err.Error()}
	}
	if err := s.validateStruct(&snapshot); err != nil {
		metrics.RecordWebsocketMessage("bad_request")
		return WSReply{Status: http.StatusBadRequest, Error: err.Error()}
	}

	result, err := s.predictions.Predict(ctx, snapshot)
	if err != nil {
		status, body := predictionStatus(err)
		reply := WSReply{Status: status}
		switch b := body.(type) {
		case ErrorResponse:
			reply.Error = b.Error
		default:
			valid := false
			reply.Valid = &valid
			reply.Error = err.Error()
		}
		metrics.RecordWebsocketMessage("rejected")
		return reply
	}

	resp := newPredictResponse(result)
	metrics.RecordWebsocketMessage("ok")
	return WSReply{Prediction: &resp, Status: http.StatusOK}
}

func (s *Server) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
