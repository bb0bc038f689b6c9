// Package prescription stores the recommendation text shown for each
// result code. Codes are opaque lookup keys here; their shape comes from
// the scoring package.
package prescription

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-perma/internal/scoring"
)

var (
	ErrNotFound    = errors.New("prescription not found")
	ErrInvalidCode = errors.New("invalid result code")
)

type Prescription struct {
	Code      string `yaml:"code" json:"code"`
	Title     string `yaml:"title" json:"title"`
	Body      string `yaml:"body" json:"body"`
	UpdatedAt int64  `yaml:"-" json:"updated_at,omitempty"`
}

type Store interface {
	Get(ctx context.Context, code string) (Prescription, error)
	Put(ctx context.Context, p Prescription) (Prescription, error)
	List(ctx context.Context) ([]Prescription, error)
}

// NormalizeCode lower-cases code and checks its shape.
func NormalizeCode(code string) (string, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if !scoring.ValidCode(code) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	return code, nil
}

type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Get(ctx context.Context, code string) (Prescription, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return Prescription{}, err
	}
	var p Prescription
	err = s.db.QueryRowContext(ctx, `SELECT code,title,body,updated_at FROM prescriptions WHERE code=$1`, code).
		Scan(&p.Code, &p.Title, &p.Body, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Prescription{}, ErrNotFound
	}
	return p, err
}

func (s *SQLStore) Put(ctx context.Context, p Prescription) (Prescription, error) {
	code, err := NormalizeCode(p.Code)
	if err != nil {
		return Prescription{}, err
	}
	p.Code = code
	p.UpdatedAt = time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `INSERT INTO prescriptions (code,title,body,updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (code) DO UPDATE SET title=EXCLUDED.title, body=EXCLUDED.body, updated_at=EXCLUDED.updated_at`,
		p.Code, p.Title, p.Body, p.UpdatedAt)
	if err != nil {
		return Prescription{}, fmt.Errorf("upsert prescription %s: %w", p.Code, err)
	}
	return p, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Prescription, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code,title,body,updated_at FROM prescriptions ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Prescription{}
	for rows.Next() {
		var p Prescription
		if err := rows.Scan(&p.Code, &p.Title, &p.Body, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// insertMissing adds p unless a row for its code already exists.
func (s *SQLStore) insertMissing(ctx context.Context, p Prescription) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO prescriptions (code,title,body,updated_at)
		VALUES ($1,$2,$3,$4) ON CONFLICT (code) DO NOTHING`,
		p.Code, p.Title, p.Body, time.Now().Unix())
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

//go:embed seed.yaml
var seedDoc []byte

// ParseSeed decodes a YAML list of prescriptions and validates every code.
func ParseSeed(data []byte) ([]Prescription, error) {
	var list []Prescription
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&list); err != nil {
		return nil, fmt.Errorf("decode prescriptions: %w", err)
	}
	seen := map[string]bool{}
	for i := range list {
		code, err := NormalizeCode(list[i].Code)
		if err != nil {
			return nil, fmt.Errorf("prescriptions[%d]: %w", i, err)
		}
		if seen[code] {
			return nil, fmt.Errorf("prescriptions[%d]: duplicate code %s", i, code)
		}
		seen[code] = true
		list[i].Code = code
		list[i].Body = strings.TrimSpace(list[i].Body)
	}
	return list, nil
}

// LoadSeed reads path, or the embedded seed when path is empty.
func LoadSeed(path string) ([]Prescription, error) {
	if path == "" {
		return ParseSeed(seedDoc)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prescriptions: %w", err)
	}
	return ParseSeed(data)
}

// Seed inserts entries whose codes are not stored yet and reports how many
// were added. Existing (possibly edited) rows are left alone.
func Seed(ctx context.Context, s *SQLStore, entries []Prescription) (int, error) {
	added := 0
	for _, p := range entries {
		ok, err := s.insertMissing(ctx, p)
		if err != nil {
			return added, fmt.Errorf("seed %s: %w", p.Code, err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}
