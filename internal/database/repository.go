package database

// RelayRepository covers the relay's two durable collaborators: the message
// store and the user directory.
type RelayRepository interface {
	Ping() error

	// Message store.
	AppendMessage(params CreateMessageParams) (Message, error)
	GetMessagesByRoom(room string, offset, limit int) ([]Message, error)
	SearchMessages(substr, room string, limit int) ([]Message, error)

	// User directory. UpsertPresence binds sessionId to username, replacing
	// any previous binding for that username.
	UpsertPresence(username, sessionId string) (PresenceRecord, error)
	SetOffline(sessionId string) error
	ListOnline() ([]PresenceRecord, error)
}
