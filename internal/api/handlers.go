package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/jpratt/go-relay/internal/database"
	"github.com/jpratt/go-relay/internal/server"
	"github.com/jpratt/go-relay/internal/types"
	"github.com/teris-io/shortid"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

func (s *RelayApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func parseLimit(r *http.Request) (int, error) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return defaultMessageLimit, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, err
	}
	if limit < 1 {
		return 0, fmt.Errorf("limit must be positive")
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}

	return limit, nil
}

func (s *RelayApp) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *RelayApp) getMessages(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if room == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var offset int
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		var err error
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	limit, err := parseLimit(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbMessages, err := s.db.GetMessagesByRoom(room, offset, limit)
	if err != nil {
		s.log.Println("get messages:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, relayMessages(dbMessages))
}

func (s *RelayApp) searchMessages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbMessages, err := s.db.SearchMessages(query, r.URL.Query().Get("room"), limit)
	if err != nil {
		s.log.Println("search messages:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, relayMessages(dbMessages))
}

func (s *RelayApp) getOnlineUsers(w http.ResponseWriter, r *http.Request) {
	dbRecords, err := s.db.ListOnline()
	if err != nil {
		s.log.Println("list online:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	records := make([]types.PresenceRecord, 0, len(dbRecords))
	for _, rec := range dbRecords {
		records = append(records, types.PresenceRecord{
			Username:  rec.Username,
			SessionId: rec.SessionId,
			Online:    rec.Online,
			UpdatedAt: rec.UpdatedAt,
		})
	}

	s.writeJson(w, http.StatusOK, records)
}

func (s *RelayApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	sessionId, err := shortid.Generate()
	if err != nil {
		s.log.Println("error generating session id:", err)
		conn.Close()
		return
	}

	session := server.NewSession(sessionId, conn, s.rs, s.log)

	s.rs.RegisterChan <- session
	go session.Write()
	go session.Read()
}

func relayMessages(dbMessages []database.Message) []types.Message {
	messages := make([]types.Message, 0, len(dbMessages))
	for _, msg := range dbMessages {
		messages = append(messages, types.Message{
			Id:            msg.ExternalId,
			SenderName:    msg.SenderName,
			SenderSession: msg.SenderSession,
			Room:          msg.Room,
			Content:       msg.Content,
			Private:       msg.Private,
			Timestamp:     msg.CreatedAt,
		})
	}
	return messages
}
