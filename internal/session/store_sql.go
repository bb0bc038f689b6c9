package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-perma/internal/bank"
	"github.com/mind-engage/mindengage-perma/internal/scoring"
	syncx "github.com/mind-engage/mindengage-perma/internal/sync"
)

// EventSink receives session lifecycle events. *syncx.EventRepo satisfies it.
type EventSink interface {
	AppendJSON(ctx context.Context, typ, key string, data any) error
}

type SQLStore struct {
	db     *sql.DB
	bank   *bank.Bank
	events EventSink
}

func NewSQLStore(db *sql.DB, b *bank.Bank, events EventSink) *SQLStore {
	return &SQLStore{db: db, bank: b, events: events}
}

const sessionCols = `id,participant,status,policy,answers_json,result_json,result_code,started_at,submitted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		s           Session
		policy      string
		ajson       string
		rjson       string
		submittedAt sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.Participant, &s.Status, &policy, &ajson, &rjson, &s.Code, &s.StartedAt, &submittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	s.Policy = scoring.MissingPolicy(policy)
	s.SubmittedAt = submittedAt.Int64
	if err := json.Unmarshal([]byte(ajson), &s.Answers); err != nil || s.Answers == nil {
		s.Answers = map[string]any{}
	}
	if rjson != "" {
		var res scoring.Result
		if err := json.Unmarshal([]byte(rjson), &res); err != nil {
			return Session{}, fmt.Errorf("decode result of %s: %w", s.ID, err)
		}
		s.Result = &res
	}
	return s, nil
}

func (s *SQLStore) Create(ctx context.Context, participant, policy string) (Session, error) {
	p, err := scoring.ParsePolicy(policy)
	if err != nil {
		return Session{}, err
	}
	sess := Session{
		ID:          uuid.NewString(),
		Participant: strings.TrimSpace(participant),
		Status:      StatusInProgress,
		Policy:      p,
		Answers:     map[string]any{},
		StartedAt:   time.Now().Unix(),
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions (id,participant,status,policy,answers_json,started_at)
		VALUES ($1,$2,$3,$4,'{}',$5)`,
		sess.ID, sess.Participant, sess.Status, string(sess.Policy), sess.StartedAt)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	s.emit(ctx, syncx.TypeSessionCreated, sess.ID, map[string]any{"participant": sess.Participant, "policy": sess.Policy})
	return sess, nil
}

func (s *SQLStore) SaveAnswer(ctx context.Context, id, questionID string, value any) (Session, error) {
	return s.SaveAnswers(ctx, id, map[string]any{questionID: value})
}

func (s *SQLStore) SaveAnswers(ctx context.Context, id string, answers map[string]any) (Session, error) {
	if err := checkAnswers(s.bank, answers); err != nil {
		return Session{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	sess, err := scanSession(tx.QueryRowContext(ctx, `SELECT `+sessionCols+` FROM sessions WHERE id=$1`, id))
	if err != nil {
		return Session{}, err
	}
	if sess.Status == StatusSubmitted {
		return Session{}, ErrAlreadySubmitted
	}
	for k, v := range answers {
		sess.Answers[k] = v
	}
	buf, err := json.Marshal(sess.Answers)
	if err != nil {
		return Session{}, fmt.Errorf("encode answers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET answers_json=$1 WHERE id=$2`, string(buf), id); err != nil {
		return Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Submit scores the session once; later calls return the stored result.
func (s *SQLStore) Submit(ctx context.Context, id string) (Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	sess, err := scanSession(tx.QueryRowContext(ctx, `SELECT `+sessionCols+` FROM sessions WHERE id=$1`, id))
	if err != nil {
		return Session{}, err
	}
	if sess.Status == StatusSubmitted {
		return sess, nil
	}

	res := scoring.Score(s.bank, sess.Answers, sess.Policy)
	rj, err := json.Marshal(res)
	if err != nil {
		return Session{}, fmt.Errorf("encode result: %w", err)
	}
	sess.Result = &res
	sess.Code = res.Code()
	sess.Status = StatusSubmitted
	sess.SubmittedAt = time.Now().Unix()

	_, err = tx.ExecContext(ctx, `UPDATE sessions SET status=$1, result_json=$2, result_code=$3, submitted_at=$4 WHERE id=$5`,
		sess.Status, string(rj), sess.Code, sess.SubmittedAt, id)
	if err != nil {
		return Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return Session{}, err
	}
	s.emit(ctx, syncx.TypeSessionSubmitted, id, map[string]any{"code": sess.Code, "percent": res.Percent, "total": res.Total})
	return sess, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Session, error) {
	return scanSession(s.db.QueryRowContext(ctx, `SELECT `+sessionCols+` FROM sessions WHERE id=$1`, id))
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Session, error) {
	opts = clampList(opts)
	var (
		rows *sql.Rows
		err  error
	)
	if opts.Status != "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+sessionCols+` FROM sessions WHERE status=$1
			ORDER BY started_at DESC, id LIMIT $2 OFFSET $3`, opts.Status, opts.Limit, opts.Offset)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+sessionCols+` FROM sessions
			ORDER BY started_at DESC, id LIMIT $1 OFFSET $2`, opts.Limit, opts.Offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// emit is best effort: a lost event never fails the session operation.
func (s *SQLStore) emit(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	_ = s.events.AppendJSON(ctx, typ, key, data)
}
