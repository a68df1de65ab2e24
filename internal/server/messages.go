package server

import (
	"net/http"
	"time"

	"github.com/jpratt/go-relay/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ClientMessage struct {
	BaseMessage
	UserJoin *UserJoin       `json:"user_join,omitempty"`
	JoinRoom *JoinRoom       `json:"join_room,omitempty"`
	Send     *SendMessage    `json:"send_message,omitempty"`
	Private  *PrivateMessage `json:"private_message,omitempty"`
	Typing   *Typing         `json:"typing,omitempty"`
}

type UserJoin struct {
	Username string `json:"username"`
}

type JoinRoom struct {
	Room string `json:"room"`
}

type SendMessage struct {
	Room    string `json:"room"`
	Content string `json:"content"`
}

type PrivateMessage struct {
	To      string `json:"to"`
	Content string `json:"content"`
}

type Typing struct {
	IsTyping bool `json:"is_typing"`
}

type ServerMessage struct {
	BaseMessage
	Response     *Response              `json:"response,omitempty"`
	Receipt      *types.DeliveryReceipt `json:"receipt,omitempty"`
	UserList     *UserList              `json:"user_list,omitempty"`
	UserJoined   *types.PresenceRecord  `json:"user_joined,omitempty"`
	Message      *types.Message         `json:"receive_message,omitempty"`
	Private      *types.Message         `json:"private_message,omitempty"`
	UnreadCounts *UnreadCounts          `json:"unread_counts,omitempty"`
	TypingUsers  *TypingUsers           `json:"typing_users,omitempty"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
}

type UserList struct {
	Users []types.PresenceRecord `json:"users"`
}

type UnreadCounts struct {
	Counts map[string]int `json:"counts"`
}

type TypingUsers struct {
	Users []string `json:"users"`
}

func NoErrOK(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
		},
	}
}

func ErrValidation(id int, reason string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        reason,
		},
	}
}

func ErrInternalError(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusInternalServerError,
			Error:        "internal server error",
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func NewReceiptMessage(id int, receipt types.DeliveryReceipt) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Receipt: &receipt,
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
