package database

import "time"

type Message struct {
	Id            int
	ExternalId    string
	SenderName    string
	SenderSession string
	Room          string
	Content       string
	Private       bool
	CreatedAt     time.Time
}

type PresenceRecord struct {
	Id        int
	Username  string
	SessionId string
	Online    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateMessageParams struct {
	SenderName    string
	SenderSession string
	Room          string
	Content       string
	Private       bool
}
