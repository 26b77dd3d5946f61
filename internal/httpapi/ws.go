package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const wsIdlePingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type wsPing struct {
	Type string `json:"type"`
}

// serveAdviseWS は1メッセージを1リクエストとして推奨手を返し続ける
func (s *Server) serveAdviseWS(w http.ResponseWriter, r *http.Request) {
	log := zerolog.Ctx(r.Context())
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	send := make(chan []byte, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, send, wsIdlePingInterval); err != nil {
			log.Debug().Err(err).Msg("websocket write stopped")
		}
	}()
	defer func() {
		close(send)
		<-done
	}()

	ctx := r.Context()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var reply any
		var req MoveRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			reply = errorResponse{Error: "invalid payload"}
		} else if resp, err := s.advise(ctx, req); err != nil {
			reply = errorResponse{Error: err.Error()}
		} else {
			reply = resp
		}

		data, err := json.Marshal(reply)
		if err != nil {
			return
		}
		select {
		case send <- data:
		case <-done:
			return
		}
	}
}

// writeWSWithHeartbeat はsendの内容を書き込み、一定時間書き込みがなければpingを送る
func writeWSWithHeartbeat(conn *websocket.Conn, send <-chan []byte, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	lastWrite := time.Now()
	pingPayload, _ := json.Marshal(wsPing{Type: "ping"})

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < interval {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, pingPayload); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
