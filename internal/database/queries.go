package database

import (
	"time"

	"github.com/google/uuid"
)

func (db *PgRelayRepository) AppendMessage(params CreateMessageParams) (Message, error) {
	res := db.conn.QueryRow(
		"INSERT INTO messages (external_id, sender_name, sender_session, room, content, private, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, external_id, created_at",
		uuid.NewString(),
		params.SenderName,
		params.SenderSession,
		params.Room,
		params.Content,
		params.Private,
		time.Now().UTC(),
	)

	msg := Message{
		SenderName:    params.SenderName,
		SenderSession: params.SenderSession,
		Room:          params.Room,
		Content:       params.Content,
		Private:       params.Private,
	}
	err := res.Scan(
		&msg.Id,
		&msg.ExternalId,
		&msg.CreatedAt,
	)

	return msg, err
}

func (db *PgRelayRepository) GetMessagesByRoom(room string, offset, limit int) ([]Message, error) {
	rows, err := db.conn.Query(
		"SELECT id, external_id, sender_name, sender_session, room, content, private, created_at "+
			"FROM messages WHERE room = $1 AND private = FALSE "+
			"ORDER BY created_at DESC, id DESC OFFSET $2 LIMIT $3",
		room,
		offset,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(
			&msg.Id,
			&msg.ExternalId,
			&msg.SenderName,
			&msg.SenderSession,
			&msg.Room,
			&msg.Content,
			&msg.Private,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (db *PgRelayRepository) SearchMessages(substr, room string, limit int) ([]Message, error) {
	query := "SELECT id, external_id, sender_name, sender_session, room, content, private, created_at " +
		"FROM messages WHERE private = FALSE AND content ILIKE '%' || $1 || '%' "
	var args []any
	if room != "" {
		query += "AND room = $2 ORDER BY created_at DESC, id DESC LIMIT $3"
		args = []any{substr, room, limit}
	} else {
		query += "ORDER BY created_at DESC, id DESC LIMIT $2"
		args = []any{substr, limit}
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(
			&msg.Id,
			&msg.ExternalId,
			&msg.SenderName,
			&msg.SenderSession,
			&msg.Room,
			&msg.Content,
			&msg.Private,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (db *PgRelayRepository) UpsertPresence(username, sessionId string) (PresenceRecord, error) {
	now := time.Now().UTC()
	res := db.conn.QueryRow(
		"INSERT INTO presence (username, session_id, online, created_at, updated_at) "+
			"VALUES ($1, $2, TRUE, $3, $3) "+
			"ON CONFLICT (username) DO UPDATE SET session_id = $2, online = TRUE, updated_at = $3 "+
			"RETURNING id, username, session_id, online, created_at, updated_at",
		username,
		sessionId,
		now,
	)

	var rec PresenceRecord
	err := res.Scan(
		&rec.Id,
		&rec.Username,
		&rec.SessionId,
		&rec.Online,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)

	return rec, err
}

func (db *PgRelayRepository) SetOffline(sessionId string) error {
	_, err := db.conn.Exec(
		"UPDATE presence SET online = FALSE, session_id = '', updated_at = $2 "+
			"WHERE session_id = $1",
		sessionId,
		time.Now().UTC(),
	)

	return err
}

func (db *PgRelayRepository) ListOnline() ([]PresenceRecord, error) {
	rows, err := db.conn.Query(
		"SELECT id, username, session_id, online, created_at, updated_at " +
			"FROM presence WHERE online = TRUE ORDER BY username",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []PresenceRecord
	for rows.Next() {
		var rec PresenceRecord
		if err := rows.Scan(
			&rec.Id,
			&rec.Username,
			&rec.SessionId,
			&rec.Online,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
