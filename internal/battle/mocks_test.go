package battle

import (
	"context"
	"fmt"
	"sync"

	"github.com/Hun425/CS-Quiz-sub001/internal/models"
)

// memStore is an in-memory Store with the same compare-and-swap contract as
// the gorm-backed one.
type memStore struct {
	mu           sync.Mutex
	rooms        map[string]models.BattleRoom
	participants map[string]models.Participant
	answers      []models.Answer
}

func newMemStore() *memStore {
	return &memStore{
		rooms:        make(map[string]models.BattleRoom),
		participants: make(map[string]models.Participant),
	}
}

func (s *memStore) CreateRoom(_ context.Context, room *models.BattleRoom) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; ok {
		return fmt.Errorf("room %s already exists", room.ID)
	}
	s.rooms[room.ID] = *room
	return nil
}

func (s *memStore) LoadRoom(_ context.Context, roomID string) (*models.BattleRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	room.Participants = nil
	for _, p := range s.participants {
		if p.RoomID == roomID {
			room.Participants = append(room.Participants, p)
		}
	}
	return &room, nil
}

func (s *memStore) SaveRoom(_ context.Context, room *models.BattleRoom) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rooms[room.ID]
	if !ok {
		return ErrRoomNotFound
	}
	if stored.Version != room.Version {
		return ErrVersionConflict
	}
	room.Version++
	saved := *room
	saved.Participants = nil
	s.rooms[room.ID] = saved
	return nil
}

func (s *memStore) ListRoomsByStatus(_ context.Context, status string) ([]models.BattleRoom, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.BattleRoom
	for _, room := range s.rooms {
		if status == "" || room.Status == status {
			out = append(out, room)
		}
	}
	return out, nil
}

func (s *memStore) SaveParticipant(_ context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[p.ID] = *p
	return nil
}

func (s *memStore) DeleteParticipant(_ context.Context, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.participants, participantID)
	return nil
}

func (s *memStore) CreateAnswer(_ context.Context, a *models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.answers {
		if existing.ParticipantID == a.ParticipantID && existing.QuestionIndex == a.QuestionIndex {
			return fmt.Errorf("duplicate answer for participant %s question %d", a.ParticipantID, a.QuestionIndex)
		}
	}
	s.answers = append(s.answers, *a)
	return nil
}

func (s *memStore) ListAnswers(_ context.Context, roomID string) ([]models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Answer
	for _, a := range s.answers {
		if a.RoomID == roomID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeContent struct {
	questions []Question
}

func (f *fakeContent) QuestionsForQuiz(context.Context, uint) ([]Question, error) {
	return f.questions, nil
}

type fakeIdentity struct{}

func (fakeIdentity) ResolveUser(_ context.Context, userID string) (UserProfile, error) {
	return UserProfile{ID: userID, DisplayName: "player-" + userID}, nil
}

type fakeResults struct {
	mu      sync.Mutex
	records []BattleRecord
}

func (f *fakeResults) RecordBattle(_ context.Context, rec BattleRecord) error {
	f.mu.Lock()
	f.records = append(f.records, rec)
	f.mu.Unlock()
	return nil
}

func (f *fakeResults) recorded() []BattleRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]BattleRecord, len(f.records))
	copy(out, f.records)
	return out
}

type publishedEvent struct {
	roomID  string
	topic   string
	payload any
}

type fakeBroadcast struct {
	mu       sync.Mutex
	events   []publishedEvent
	targeted map[string][]any
}

func newFakeBroadcast() *fakeBroadcast {
	return &fakeBroadcast{targeted: make(map[string][]any)}
}

func (f *fakeBroadcast) PublishToRoom(roomID, topic string, payload any) {
	f.mu.Lock()
	f.events = append(f.events, publishedEvent{roomID: roomID, topic: topic, payload: payload})
	f.mu.Unlock()
}

func (f *fakeBroadcast) PublishToSession(sessionID string, payload any) {
	f.mu.Lock()
	f.targeted[sessionID] = append(f.targeted[sessionID], payload)
	f.mu.Unlock()
}

func (f *fakeBroadcast) byTopic(topic string) []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []publishedEvent
	for _, ev := range f.events {
		if ev.topic == topic {
			out = append(out, ev)
		}
	}
	return out
}
