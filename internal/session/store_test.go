package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-perma/internal/bank"
	"github.com/mind-engage/mindengage-perma/internal/db"
	"github.com/mind-engage/mindengage-perma/internal/scoring"
	"github.com/mind-engage/mindengage-perma/internal/session"
	syncx "github.com/mind-engage/mindengage-perma/internal/sync"
)

/* ---------------- fakes ---------------- */

type recordedEvent struct {
	typ, key string
}

type fakeSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeSink) AppendJSON(_ context.Context, typ, key string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{typ, key})
	return nil
}

func openSQL(t *testing.T, sink session.EventSink) *session.SQLStore {
	t.Helper()
	h, err := db.Open(context.Background(), db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "perma.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return session.NewSQLStore(h, bank.Default(), sink)
}

func stores(t *testing.T) map[string]session.Store {
	return map[string]session.Store{
		"memory": session.NewInMemoryStore(bank.Default()),
		"sql":    openSQL(t, nil),
	}
}

/* ---------------- shared behaviour ---------------- */

func TestStore_AnswerOneAtATimeThenSubmit(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s, err := st.Create(ctx, " ana ", "")
			require.NoError(t, err)
			assert.Equal(t, "ana", s.Participant)
			assert.Equal(t, session.StatusInProgress, s.Status)
			assert.Equal(t, scoring.MissingSkip, s.Policy)
			assert.Empty(t, s.Answers)

			_, err = st.SaveAnswer(ctx, s.ID, "P1", 5)
			require.NoError(t, err)
			s, err = st.SaveAnswer(ctx, s.ID, "P2", 1) // reverse scored: contributes 5
			require.NoError(t, err)
			assert.Len(t, s.Answers, 2)

			s, err = st.Submit(ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, session.StatusSubmitted, s.Status)
			require.NotNil(t, s.Result)
			assert.Equal(t, 10, s.Result.Sums[bank.Positive])
			assert.Equal(t, 2, s.Result.Answered[bank.Positive])
			assert.Equal(t, 100, s.Result.Percent)
			assert.Equal(t, "pdiul", s.Code)
			assert.NotZero(t, s.SubmittedAt)

			got, err := st.Get(ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, s.Code, got.Code)
			assert.Equal(t, s.Result.Sums, got.Result.Sums)
		})
	}
}

func TestStore_SubmittedSessionIsReadOnly(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s, err := st.Create(ctx, "ben", "mid")
			require.NoError(t, err)
			_, err = st.SaveAnswers(ctx, s.ID, map[string]any{"A1": "4", "A2": 4})
			require.NoError(t, err)
			first, err := st.Submit(ctx, s.ID)
			require.NoError(t, err)

			_, err = st.SaveAnswer(ctx, s.ID, "A1", 1)
			assert.True(t, errors.Is(err, session.ErrAlreadySubmitted))

			again, err := st.Submit(ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, first.Code, again.Code)
			assert.Equal(t, first.SubmittedAt, again.SubmittedAt)
		})
	}
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Create(ctx, "cy", "median")
			assert.Error(t, err)

			_, err = st.Get(ctx, "nope")
			assert.True(t, errors.Is(err, session.ErrNotFound))
			_, err = st.Submit(ctx, "nope")
			assert.True(t, errors.Is(err, session.ErrNotFound))
			_, err = st.SaveAnswer(ctx, "nope", "P1", 3)
			assert.True(t, errors.Is(err, session.ErrNotFound))

			s, err := st.Create(ctx, "cy", "zero")
			require.NoError(t, err)
			_, err = st.SaveAnswer(ctx, s.ID, "Z9", 3)
			assert.True(t, errors.Is(err, session.ErrUnknownQuestion))
		})
	}
}

func TestStore_MalformedValuesCountAsMissing(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s, err := st.Create(ctx, "dee", "min")
			require.NoError(t, err)
			_, err = st.SaveAnswers(ctx, s.ID, map[string]any{"M1": "abc", "M2": nil})
			require.NoError(t, err)
			s, err = st.Submit(ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, s.Result.Sums[bank.Meaning])
			assert.Equal(t, 0, s.Result.Answered[bank.Meaning])
			assert.Equal(t, 0, s.Result.Percent)
		})
	}
}

func TestStore_List(t *testing.T) {
	ctx := context.Background()
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var ids []string
			for _, p := range []string{"a", "b", "c"} {
				s, err := st.Create(ctx, p, "")
				require.NoError(t, err)
				ids = append(ids, s.ID)
			}
			_, err := st.Submit(ctx, ids[0])
			require.NoError(t, err)

			all, err := st.List(ctx, session.ListOpts{})
			require.NoError(t, err)
			assert.Len(t, all, 3)

			done, err := st.List(ctx, session.ListOpts{Status: session.StatusSubmitted})
			require.NoError(t, err)
			require.Len(t, done, 1)
			assert.Equal(t, ids[0], done[0].ID)

			page, err := st.List(ctx, session.ListOpts{Limit: 2, Offset: 2})
			require.NoError(t, err)
			assert.Len(t, page, 1)
		})
	}
}

func TestStore_ReturnedAnswersAreDetached(t *testing.T) {
	ctx := context.Background()
	st := session.NewInMemoryStore(bank.Default())
	s, err := st.Create(ctx, "eve", "")
	require.NoError(t, err)
	s, err = st.SaveAnswer(ctx, s.ID, "E1", 4)
	require.NoError(t, err)
	s.Answers["E1"] = 1

	got, err := st.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Answers["E1"])
}

/* ---------------- sql specific ---------------- */

func TestSQLStore_EmitsLifecycleEvents(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	st := openSQL(t, sink)

	s, err := st.Create(ctx, "fay", "")
	require.NoError(t, err)
	_, err = st.Submit(ctx, s.ID)
	require.NoError(t, err)
	_, err = st.Submit(ctx, s.ID)
	require.NoError(t, err)

	assert.Equal(t, []recordedEvent{
		{syncx.TypeSessionCreated, s.ID},
		{syncx.TypeSessionSubmitted, s.ID},
	}, sink.events)
}
