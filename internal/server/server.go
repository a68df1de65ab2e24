package server

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/jpratt/go-relay/internal/database"
	"github.com/jpratt/go-relay/internal/stats"
)

type stopRequest struct {
	done chan struct{}
}

type RelayServer struct {
	log          *log.Logger
	db           database.RelayRepository
	stats        stats.StatsProvider
	presence     *PresenceTracker
	rooms        *RoomTable
	unread       *UnreadStore
	typing       *TypingAggregator
	fanout       *Fanout
	sessions     map[string]*Session
	sessionsLock sync.Mutex

	RegisterChan   chan *Session
	DeRegisterChan chan *Session
	stop           chan stopRequest
}

func NewRelayServer(logger *log.Logger, db database.RelayRepository, su stats.StatsProvider) (*RelayServer, error) {
	rs := &RelayServer{
		log:            logger,
		db:             db,
		stats:          su,
		rooms:          NewRoomTable(),
		unread:         NewUnreadStore(),
		typing:         NewTypingAggregator(),
		sessions:       make(map[string]*Session),
		RegisterChan:   make(chan *Session),
		DeRegisterChan: make(chan *Session),
		stop:           make(chan stopRequest),
	}
	rs.presence = NewPresenceTracker(db, logger)
	rs.fanout = NewFanout(rs, logger)

	for _, metric := range []string{"ActiveSessions", "OnlineUsers", "RoomMessages", "PrivateMessages"} {
		su.RegisterMetric(metric)
	}

	return rs, nil
}

func (rs *RelayServer) Run() {
	for {
		select {
		case s := <-rs.RegisterChan:
			rs.log.Printf("session %q connected", s.id)
			rs.addSession(s)
			rs.stats.Incr("ActiveSessions")
		case s := <-rs.DeRegisterChan:
			rs.log.Printf("session %q disconnected", s.id)
			rs.teardownSession(s)
			rs.stats.Decr("ActiveSessions")
		case req := <-rs.stop:
			rs.log.Println("shutting down sessions")
			rs.sessionsLock.Lock()
			for _, s := range rs.sessions {
				s.stopSession()
			}
			rs.sessionsLock.Unlock()

			close(req.done)
			return
		}
	}
}

func (rs *RelayServer) Shutdown(ctx context.Context) error {
	req := stopRequest{done: make(chan struct{})}

	select {
	case rs.stop <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (rs *RelayServer) addSession(s *Session) {
	rs.sessionsLock.Lock()
	defer rs.sessionsLock.Unlock()
	rs.sessions[s.id] = s
}

// teardownSession purges all state derived from the session. Each step is
// best-effort: a failing directory call is logged and the remaining steps
// still run.
func (rs *RelayServer) teardownSession(s *Session) {
	rs.sessionsLock.Lock()
	delete(rs.sessions, s.id)
	rs.sessionsLock.Unlock()

	left, err := rs.presence.Leave(s.id)
	if err != nil {
		rs.log.Println("presence leave:", err)
	}
	if left {
		rs.stats.Decr("OnlineUsers")
		rs.broadcastUserList()
	}

	if rs.typing.Purge(s.id) {
		rs.broadcastTypingUsers()
	}

	rs.unread.Purge(s.id)
	rs.rooms.Purge(s.id)
}

func (rs *RelayServer) sendToSession(id string, msg *ServerMessage) {
	rs.sessionsLock.Lock()
	s, ok := rs.sessions[id]
	rs.sessionsLock.Unlock()

	if !ok {
		return
	}

	s.queueMessage(msg)
}

func (rs *RelayServer) broadcastRoom(room string, msg *ServerMessage) {
	for _, id := range rs.rooms.SessionsInRoom(room) {
		rs.sendToSession(id, msg)
	}
}

func (rs *RelayServer) broadcastAll(msg *ServerMessage) {
	rs.sessionsLock.Lock()
	targets := make([]*Session, 0, len(rs.sessions))
	for _, s := range rs.sessions {
		targets = append(targets, s)
	}
	rs.sessionsLock.Unlock()

	for _, s := range targets {
		s.queueMessage(msg)
	}
}

func (rs *RelayServer) broadcastUserList() {
	records, err := rs.presence.ListOnline()
	if err != nil {
		rs.log.Println("list online:", err)
		return
	}

	rs.broadcastAll(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		UserList:    &UserList{Users: records},
	})
}

func (rs *RelayServer) broadcastTypingUsers() {
	rs.broadcastAll(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		TypingUsers: &TypingUsers{Users: rs.typing.Snapshot()},
	})
}

func (rs *RelayServer) handleUserJoin(s *Session, msg *ClientMessage) {
	rec, delta, err := rs.presence.Join(msg.UserJoin.Username, s.id)
	if err != nil {
		if errors.Is(err, ErrEmptyUsername) {
			s.queueMessage(ErrValidation(msg.Id, err.Error()))
			return
		}

		rs.log.Println("presence join:", err)
		s.queueMessage(ErrInternalError(msg.Id))
		return
	}

	if delta > 0 {
		rs.stats.Incr("OnlineUsers")
	}
	s.queueMessage(NoErrOK(msg.Id))

	rs.broadcastUserList()
	rs.broadcastAll(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		UserJoined:  &rec,
	})
}

func (rs *RelayServer) handleJoinRoom(s *Session, msg *ClientMessage) {
	room := msg.JoinRoom.Room
	if room == "" {
		s.queueMessage(ErrValidation(msg.Id, "room cannot be empty"))
		return
	}

	prev := rs.rooms.SetRoom(s.id, room)
	if prev != "" && prev != room {
		rs.log.Printf("session %q left room %q for %q", s.id, prev, room)
	}

	counts := rs.unread.ResetRoom(s.id, room)

	s.queueMessage(NoErrOK(msg.Id))
	s.queueMessage(&ServerMessage{
		BaseMessage:  BaseMessage{Timestamp: Now()},
		UnreadCounts: &UnreadCounts{Counts: counts},
	})
}

func (rs *RelayServer) handleSendMessage(s *Session, msg *ClientMessage) {
	room := msg.Send.Room
	if room == "" {
		// fall back to the session's current room
		current, ok := rs.rooms.Room(s.id)
		if !ok {
			s.queueMessage(ErrValidation(msg.Id, "room cannot be empty"))
			return
		}
		room = current
	}

	rs.fanout.SendRoomMessage(msg.Id, s.id, room, msg.Send.Content)
}

func (rs *RelayServer) handlePrivateMessage(s *Session, msg *ClientMessage) {
	if msg.Private.To == "" {
		s.queueMessage(ErrValidation(msg.Id, "target session cannot be empty"))
		return
	}

	rs.fanout.SendPrivateMessage(msg.Id, s.id, msg.Private.To, msg.Private.Content)
}

func (rs *RelayServer) handleTyping(s *Session, msg *ClientMessage) {
	name, ok := rs.presence.UsernameBySession(s.id)
	if !ok {
		// typing before user_join has no display name to show
		return
	}

	if rs.typing.SetTyping(s.id, name, msg.Typing.IsTyping) {
		rs.broadcastTypingUsers()
	}
}
