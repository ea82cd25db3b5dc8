package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/health-assistant/backend/internal/model/chat"
	"github.com/zhouzirui/health-assistant/backend/pkg/log"
)

const subscriberBuffer = 16

// Service owns session lifecycles and the conversation log of each session.
// New turns are also fanned out to live subscribers of the session.
type Service struct {
	store Store

	mu          sync.RWMutex
	subscribers map[string]map[chan chat.Turn]struct{}
}

func NewService(store Store) *Service {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Service{
		store:       store,
		subscribers: make(map[string]map[chan chat.Turn]struct{}),
	}
}

// CreateSession provisions an anonymous session with an empty log.
func (s *Service) CreateSession(ctx context.Context) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return chat.Session{}, err
	}
	return session, nil
}

func (s *Service) GetSession(ctx context.Context, sessionID string) (chat.Session, error) {
	if sessionID == "" {
		return chat.Session{}, ErrSessionNotFound
	}
	return s.store.GetSession(ctx, sessionID)
}

// AppendTurn assigns an id and timestamp and adds the turn to the end of the log.
func (s *Service) AppendTurn(ctx context.Context, turn chat.Turn) (chat.Turn, error) {
	appended, err := s.AppendTurns(ctx, turn)
	if err != nil {
		return chat.Turn{}, err
	}
	return appended[0], nil
}

// AppendTurns stores turns of a single session together, so a failure leaves
// none of them in the log. Subscribers see them in the given order.
func (s *Service) AppendTurns(ctx context.Context, turns ...chat.Turn) ([]chat.Turn, error) {
	if len(turns) == 0 {
		return nil, ErrInvalidTurn
	}

	sessionID := turns[0].SessionID
	now := time.Now().UTC()
	appended := make([]chat.Turn, len(turns))
	for i, turn := range turns {
		if turn.SessionID == "" || turn.SessionID != sessionID || (turn.Role != chat.RoleUser && turn.Role != chat.RoleBot) {
			return nil, ErrInvalidTurn
		}
		turn.ID = uuid.NewString()
		if turn.CreatedAt.IsZero() {
			turn.CreatedAt = now
		}
		appended[i] = turn
	}

	if err := s.store.AppendTurns(ctx, sessionID, appended...); err != nil {
		return nil, err
	}

	for _, turn := range appended {
		s.publish(turn)
	}
	return appended, nil
}

// LoadTranscript returns the session log in append order.
func (s *Service) LoadTranscript(ctx context.Context, sessionID string) ([]chat.Turn, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}
	return s.store.LoadTranscript(ctx, sessionID)
}

// Subscribe delivers turns appended after the call. The returned cancel must be
// called once the receiver is done; it closes the channel.
func (s *Service) Subscribe(sessionID string) (<-chan chat.Turn, func()) {
	ch := make(chan chat.Turn, subscriberBuffer)

	s.mu.Lock()
	subs, ok := s.subscribers[sessionID]
	if !ok {
		subs = make(map[chan chat.Turn]struct{})
		s.subscribers[sessionID] = subs
	}
	subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers[sessionID], ch)
			if len(s.subscribers[sessionID]) == 0 {
				delete(s.subscribers, sessionID)
			}
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Service) publish(turn chat.Turn) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for ch := range s.subscribers[turn.SessionID] {
		select {
		case ch <- turn:
		default:
			log.Warn(log.Fields{"session_id": turn.SessionID, "turn_id": turn.ID}, "subscriber buffer full, dropping turn event")
		}
	}
}
