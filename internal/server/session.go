package server

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Session is one connected client. The transport layer creates it on upgrade
// and it lives until the read pump exits; all derived state is purged by the
// relay server on deregistration.
type Session struct {
	id   string
	conn *websocket.Conn
	rs   *RelayServer
	log  *log.Logger
	send chan *ServerMessage
	stop chan struct{}
}

func NewSession(id string, conn *websocket.Conn, rs *RelayServer, l *log.Logger) *Session {
	return &Session{
		id:   id,
		conn: conn,
		rs:   rs,
		log:  l,
		send: make(chan *ServerMessage, 256),
		stop: make(chan struct{}),
	}
}

func (s *Session) Id() string {
	return s.id
}

func (s *Session) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
		s.log.Printf("session %q write exiting", s.id)
	}()

	for {
		select {
		case msg, ok := <-s.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(msg)
			if err != nil {
				s.log.Println("failed to serialize message:", err)
				continue
			}

			if !s.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-s.stop:
			return
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !s.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (s *Session) Read() {
	defer func() {
		s.conn.Close()
		s.cleanup()
		s.log.Printf("session %q read exiting", s.id)
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(appData string) error { s.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.log.Println("error parsing message:", err)
			s.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		msg.Timestamp = Now()
		s.dispatch(&msg)
	}
}

func (s *Session) dispatch(msg *ClientMessage) {
	switch {
	case msg.UserJoin != nil:
		s.rs.handleUserJoin(s, msg)
	case msg.JoinRoom != nil:
		s.rs.handleJoinRoom(s, msg)
	case msg.Send != nil:
		s.rs.handleSendMessage(s, msg)
	case msg.Private != nil:
		s.rs.handlePrivateMessage(s, msg)
	case msg.Typing != nil:
		s.rs.handleTyping(s, msg)
	default:
		s.queueMessage(ErrInvalidMessage(msg.Id))
	}
}

func (s *Session) queueMessage(msg *ServerMessage) bool {
	select {
	case s.send <- msg:
	default:
		s.log.Printf("send channel full for session %q, dropping message", s.id)
		return false
	}

	return true
}

func (s *Session) sendMessage(msgType int, msg []byte) bool {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := s.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			s.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (s *Session) stopSession() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

func (s *Session) cleanup() {
	select {
	case s.rs.DeRegisterChan <- s:
	case <-s.stop:
		// server initiated the stop, the registry is already draining
	}
	s.stopSession()
}
