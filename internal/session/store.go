package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

// Persistence is the durable side of the store. Store works without one.
type Persistence interface {
	GetSessionWithDefault(ctx context.Context, chatID int64) (*domain.Session, error)
	UpsertSession(ctx context.Context, s *domain.Session) error
	AppendEntry(ctx context.Context, chatID int64, entry domain.ConversationEntry) error
	ListEntries(ctx context.Context, chatID int64) ([]domain.ConversationEntry, error)
	ResetSession(ctx context.Context, chatID int64) error
}

// Store caches one State per chat and serializes work on each of them.
// Different chats proceed in parallel.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*entry
	db       Persistence
	now      func() time.Time
	log      *slog.Logger
}

type entry struct {
	mu      sync.Mutex
	state   *State
	evicted bool
}

func NewStore(db Persistence, log *slog.Logger) *Store {
	return &Store{
		sessions: make(map[int64]*entry),
		db:       db,
		now:      time.Now,
		log:      log,
	}
}

// Update runs fn with exclusive access to the chat's state and then persists
// the selection state and new entries. Persistence failures are logged; the
// in-memory state stays authoritative.
func (s *Store) Update(ctx context.Context, chatID int64, fn func(st *State) error) error {
	e := s.lock(chatID)
	defer e.mu.Unlock()

	if err := s.loadLocked(ctx, chatID, e); err != nil {
		return err
	}

	err := fn(e.state)

	e.state.session.LastActive = s.now()
	s.persistLocked(ctx, e.state)

	return err
}

// View runs fn with exclusive access and persists nothing.
func (s *Store) View(ctx context.Context, chatID int64, fn func(st *State) error) error {
	e := s.lock(chatID)
	defer e.mu.Unlock()

	if err := s.loadLocked(ctx, chatID, e); err != nil {
		return err
	}

	return fn(e.state)
}

// Reset replaces the chat's state with a fresh one.
func (s *Store) Reset(ctx context.Context, chatID int64) error {
	e := s.lock(chatID)
	defer e.mu.Unlock()

	if s.db != nil {
		if err := s.db.ResetSession(ctx, chatID); err != nil {
			return fmt.Errorf("reset session: %w", err)
		}
	}

	e.state = NewState(chatID)
	e.state.session.LastActive = s.now()

	return nil
}

// EvictIdle drops cached states not used since before now minus ttl. Busy
// states are skipped. It returns the number of evicted states.
func (s *Store) EvictIdle(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for chatID, e := range s.sessions {
		if !e.mu.TryLock() {
			continue
		}

		if e.state == nil || e.state.session.LastActive.Before(cutoff) {
			e.evicted = true
			delete(s.sessions, chatID)
			evicted++
		}

		e.mu.Unlock()
	}

	return evicted
}

// Len is the number of cached states.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// lock returns the chat's entry locked. An entry evicted while we waited for
// it is replaced by a fresh one.
func (s *Store) lock(chatID int64) *entry {
	for {
		e := s.entry(chatID)
		e.mu.Lock()

		if !e.evicted {
			return e
		}

		e.mu.Unlock()
	}
}

func (s *Store) entry(chatID int64) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[chatID]
	if !ok {
		e = &entry{}
		s.sessions[chatID] = e
	}

	return e
}

func (s *Store) loadLocked(ctx context.Context, chatID int64, e *entry) error {
	if e.state != nil {
		return nil
	}

	st := NewState(chatID)

	if s.db != nil {
		session, err := s.db.GetSessionWithDefault(ctx, chatID)
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		entries, err := s.db.ListEntries(ctx, chatID)
		if err != nil {
			return fmt.Errorf("list entries: %w", err)
		}

		st.session = *session
		st.conversation = entries
	}

	e.state = st

	return nil
}

func (s *Store) persistLocked(ctx context.Context, st *State) {
	pending := st.takePending()

	if s.db == nil {
		return
	}

	for _, entry := range pending {
		if err := s.db.AppendEntry(ctx, st.ChatID(), entry); err != nil {
			s.log.ErrorContext(ctx, "Failed to persist conversation entry",
				"error", err,
				"chatID", st.ChatID())
		}
	}

	session := st.Session()
	if err := s.db.UpsertSession(ctx, &session); err != nil {
		s.log.ErrorContext(ctx, "Failed to persist session",
			"error", err,
			"chatID", st.ChatID())
	}
}
