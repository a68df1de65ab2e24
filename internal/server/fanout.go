package server

import (
	"log"

	"github.com/jpratt/go-relay/internal/database"
	"github.com/jpratt/go-relay/internal/types"
)

// anonymousSender is recorded when a sender has no presence binding yet.
const anonymousSender = "anonymous"

// Fanout persists outgoing messages and routes them to one session, one room,
// or all sessions. A message is either durably stored, acknowledged and
// broadcast with counters updated, or none of that happens.
type Fanout struct {
	rs  *RelayServer
	log *log.Logger
}

func NewFanout(rs *RelayServer, logger *log.Logger) *Fanout {
	return &Fanout{rs: rs, log: logger}
}

// SendRoomMessage persists a room message, acks the sender, broadcasts it to
// every session currently in the room, and bumps unread counters for every
// other online session not viewing the room.
func (f *Fanout) SendRoomMessage(correlationId int, sessionId, room, content string) types.DeliveryReceipt {
	sender, ok := f.rs.presence.UsernameBySession(sessionId)
	if !ok {
		sender = anonymousSender
	}

	dbMsg, err := f.rs.db.AppendMessage(database.CreateMessageParams{
		SenderName:    sender,
		SenderSession: sessionId,
		Room:          room,
		Content:       content,
	})
	if err != nil {
		f.log.Println("append message:", err)
		receipt := types.DeliveryReceipt{
			Status: types.StatusError,
			Error:  "message could not be stored",
		}
		f.rs.sendToSession(sessionId, NewReceiptMessage(correlationId, receipt))
		return receipt
	}

	msg := relayMessage(dbMsg)
	receipt := types.DeliveryReceipt{
		Status:    types.StatusDelivered,
		MessageId: msg.Id,
		Timestamp: msg.Timestamp,
	}

	// ack before fanning out
	f.rs.sendToSession(sessionId, NewReceiptMessage(correlationId, receipt))

	f.rs.broadcastRoom(room, &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: msg.Timestamp},
		Message:     &msg,
	})

	f.bumpUnreadCounts(room, sessionId)
	f.rs.stats.Incr("RoomMessages")

	return receipt
}

// bumpUnreadCounts increments the room counter for every online session other
// than the sender that is not currently viewing the room, and delivers each
// affected session its updated counter map.
func (f *Fanout) bumpUnreadCounts(room, senderSession string) {
	online := f.rs.presence.OnlineSessionIds()

	recipients := make([]string, 0, len(online))
	for _, id := range online {
		if r, ok := f.rs.rooms.Room(id); ok && r == room {
			continue
		}
		recipients = append(recipients, id)
	}

	updated := f.rs.unread.IncrementAllExcept(room, senderSession, recipients)
	for id, counts := range updated {
		f.rs.sendToSession(id, &ServerMessage{
			BaseMessage:  BaseMessage{Timestamp: Now()},
			UnreadCounts: &UnreadCounts{Counts: counts},
		})
	}
}

// SendPrivateMessage persists a private message and delivers it to the target
// session and back to the sender. A missing target is absorbed silently; no
// unread counters move for private traffic.
func (f *Fanout) SendPrivateMessage(correlationId int, senderSession, targetSession, content string) types.DeliveryReceipt {
	sender, ok := f.rs.presence.UsernameBySession(senderSession)
	if !ok {
		sender = anonymousSender
	}

	dbMsg, err := f.rs.db.AppendMessage(database.CreateMessageParams{
		SenderName:    sender,
		SenderSession: senderSession,
		Content:       content,
		Private:       true,
	})
	if err != nil {
		f.log.Println("append private message:", err)
		receipt := types.DeliveryReceipt{
			Status: types.StatusError,
			Error:  "message could not be stored",
		}
		f.rs.sendToSession(senderSession, NewReceiptMessage(correlationId, receipt))
		return receipt
	}

	msg := relayMessage(dbMsg)
	receipt := types.DeliveryReceipt{
		Status:    types.StatusDelivered,
		MessageId: msg.Id,
		Timestamp: msg.Timestamp,
	}
	f.rs.sendToSession(senderSession, NewReceiptMessage(correlationId, receipt))

	delivery := &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: msg.Timestamp},
		Private:     &msg,
	}
	f.rs.sendToSession(targetSession, delivery)
	if targetSession != senderSession {
		f.rs.sendToSession(senderSession, delivery)
	}

	f.rs.stats.Incr("PrivateMessages")

	return receipt
}

func relayMessage(msg database.Message) types.Message {
	return types.Message{
		Id:            msg.ExternalId,
		SenderName:    msg.SenderName,
		SenderSession: msg.SenderSession,
		Room:          msg.Room,
		Content:       msg.Content,
		Private:       msg.Private,
		Timestamp:     msg.CreatedAt,
	}
}
