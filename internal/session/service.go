package session

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-perma/internal/bank"
	"github.com/mind-engage/mindengage-perma/internal/scoring"
)

type memoryStore struct {
	mu       sync.RWMutex
	bank     *bank.Bank
	sessions map[string]Session
	now      func() time.Time
}

func NewInMemoryStore(b *bank.Bank) Store {
	return &memoryStore{
		bank:     b,
		sessions: map[string]Session{},
		now:      time.Now,
	}
}

func (m *memoryStore) Create(_ context.Context, participant, policy string) (Session, error) {
	p, err := scoring.ParsePolicy(policy)
	if err != nil {
		return Session{}, err
	}
	s := Session{
		ID:          uuid.NewString(),
		Participant: strings.TrimSpace(participant),
		Status:      StatusInProgress,
		Policy:      p,
		Answers:     map[string]any{},
		StartedAt:   m.now().Unix(),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return clone(s), nil
}

func (m *memoryStore) SaveAnswer(ctx context.Context, id, questionID string, value any) (Session, error) {
	return m.SaveAnswers(ctx, id, map[string]any{questionID: value})
}

func (m *memoryStore) SaveAnswers(_ context.Context, id string, answers map[string]any) (Session, error) {
	if err := checkAnswers(m.bank, answers); err != nil {
		return Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.Status == StatusSubmitted {
		return Session{}, ErrAlreadySubmitted
	}
	next := make(map[string]any, len(s.Answers)+len(answers))
	for k, v := range s.Answers {
		next[k] = v
	}
	for k, v := range answers {
		next[k] = v
	}
	s.Answers = next
	m.sessions[id] = s
	return clone(s), nil
}

func (m *memoryStore) Submit(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if s.Status == StatusSubmitted {
		return clone(s), nil
	}
	res := scoring.Score(m.bank, s.Answers, s.Policy)
	s.Result = &res
	s.Code = res.Code()
	s.Status = StatusSubmitted
	s.SubmittedAt = m.now().Unix()
	m.sessions[id] = s
	return clone(s), nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return clone(s), nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Session, error) {
	opts = clampList(opts)
	m.mu.RLock()
	all := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if opts.Status != "" && s.Status != opts.Status {
			continue
		}
		all = append(all, clone(s))
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].StartedAt != all[j].StartedAt {
			return all[i].StartedAt > all[j].StartedAt
		}
		return all[i].ID < all[j].ID
	})
	if opts.Offset >= len(all) {
		return []Session{}, nil
	}
	all = all[opts.Offset:]
	if len(all) > opts.Limit {
		all = all[:opts.Limit]
	}
	return all, nil
}

// clone detaches the answers map so callers cannot mutate stored state.
// Results are never mutated after Submit, so the pointer is shared.
func clone(s Session) Session {
	answers := make(map[string]any, len(s.Answers))
	for k, v := range s.Answers {
		answers[k] = v
	}
	s.Answers = answers
	return s
}
