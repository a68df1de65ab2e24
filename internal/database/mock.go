package database

import (
	"github.com/stretchr/testify/mock"
)

type MockRelayRepository struct {
	mock.Mock
}

func (m *MockRelayRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRelayRepository) AppendMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}

func (m *MockRelayRepository) GetMessagesByRoom(room string, offset, limit int) ([]Message, error) {
	args := m.Called(room, offset, limit)
	return args.Get(0).([]Message), args.Error(1)
}

func (m *MockRelayRepository) SearchMessages(substr, room string, limit int) ([]Message, error) {
	args := m.Called(substr, room, limit)
	return args.Get(0).([]Message), args.Error(1)
}

func (m *MockRelayRepository) UpsertPresence(username, sessionId string) (PresenceRecord, error) {
	args := m.Called(username, sessionId)
	return args.Get(0).(PresenceRecord), args.Error(1)
}

func (m *MockRelayRepository) SetOffline(sessionId string) error {
	args := m.Called(sessionId)
	return args.Error(0)
}

func (m *MockRelayRepository) ListOnline() ([]PresenceRecord, error) {
	args := m.Called()
	return args.Get(0).([]PresenceRecord), args.Error(1)
}
