package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	api "github.com/mind-engage/mindengage-perma/internal/api/http"
	auth "github.com/mind-engage/mindengage-perma/internal/auth/middleware"
	"github.com/mind-engage/mindengage-perma/internal/bank"
	"github.com/mind-engage/mindengage-perma/internal/db"
	"github.com/mind-engage/mindengage-perma/internal/prescription"
	"github.com/mind-engage/mindengage-perma/internal/scoring"
	"github.com/mind-engage/mindengage-perma/internal/session"
	syncx "github.com/mind-engage/mindengage-perma/internal/sync"
)

type env struct {
	srv     *httptest.Server
	authSvc *auth.AuthService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	b := bank.Default()
	rx := prescription.NewSQLStore(h)
	seed, err := prescription.LoadSeed("")
	require.NoError(t, err)
	_, err = prescription.Seed(ctx, rx, seed)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	authSvc := auth.NewAuthService("test-secret", "admin", string(hash))

	r := api.NewRouter(api.Deps{
		Bank:          b,
		Sessions:      session.NewSQLStore(h, b, syncx.NewEventRepo(h)),
		Prescriptions: rx,
		Auth:          authSvc,
		Policy:        scoring.MissingSkip,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &env{srv: srv, authSvc: authSvc}
}

func (e *env) do(t *testing.T, method, path, body, token string) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	buf, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, buf
}

func TestGetBank(t *testing.T) {
	e := newEnv(t)
	code, body := e.do(t, http.MethodGet, "/bank", "", "")
	require.Equal(t, http.StatusOK, code)

	var sections []bank.Section
	require.NoError(t, json.Unmarshal(body, &sections))
	require.Len(t, sections, 5)
	assert.Equal(t, bank.Positive, sections[0].Dimension)
	assert.Len(t, sections[2].Questions, 7)
}

func TestScore_Stateless(t *testing.T) {
	e := newEnv(t)
	code, body := e.do(t, http.MethodPost, "/score",
		`{"answers":{"P1":5,"P2":1,"E1":"4","E2":2,"S1":"abc"},"policy":"skip"}`, "")
	require.Equal(t, http.StatusOK, code, string(body))

	var got struct {
		Sums    map[string]int `json:"sums"`
		Percent int            `json:"percent"`
		Code    string         `json:"code"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 10, got.Sums["P"])
	assert.Equal(t, 8, got.Sums["E"])
	assert.Equal(t, "peiul", got.Code)

	code, _ = e.do(t, http.MethodPost, "/score", `{"answers":{},"policy":"average"}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSessionFlow(t *testing.T) {
	e := newEnv(t)

	code, body := e.do(t, http.MethodPost, "/sessions", `{"participant":"ana"}`, "")
	require.Equal(t, http.StatusCreated, code, string(body))
	var s session.Session
	require.NoError(t, json.Unmarshal(body, &s))
	require.NotEmpty(t, s.ID)

	code, _ = e.do(t, http.MethodGet, "/sessions/"+s.ID+"/prescription", "", "")
	assert.Equal(t, http.StatusConflict, code, "no prescription before submit")

	answers := map[string]int{"P1": 5, "P2": 1, "E1": 5, "E2": 1, "M1": 4, "M2": 2, "A1": 3, "A2": 3}
	for qid, v := range answers {
		body := `{"question_id":"` + qid + `","value":` + string(rune('0'+v)) + `}`
		code, resp := e.do(t, http.MethodPost, "/sessions/"+s.ID+"/answers", body, "")
		require.Equal(t, http.StatusOK, code, string(resp))
	}
	code, body = e.do(t, http.MethodPost, "/sessions/"+s.ID+"/answers", `{"answers":{"S1":4,"S2":4,"S3":4,"S4":2,"S5":4,"S6":4,"S7":1}}`, "")
	require.Equal(t, http.StatusOK, code, string(body))

	code, body = e.do(t, http.MethodPost, "/sessions/"+s.ID+"/submit", "", "")
	require.Equal(t, http.StatusOK, code, string(body))
	require.NoError(t, json.Unmarshal(body, &s))
	assert.Equal(t, session.StatusSubmitted, s.Status)
	// S: 4+4+4+(6-2)+4+4+1 = 25 >= 21
	assert.Equal(t, 25, s.Result.Sums[bank.Social])
	assert.Equal(t, "pesma", s.Code)

	code, body = e.do(t, http.MethodGet, "/sessions/"+s.ID+"/prescription", "", "")
	require.Equal(t, http.StatusOK, code, string(body))
	var p prescription.Prescription
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, "pesma", p.Code)
	assert.NotEmpty(t, p.Body)

	code, _ = e.do(t, http.MethodPost, "/sessions/"+s.ID+"/answers", `{"question_id":"P1","value":1}`, "")
	assert.Equal(t, http.StatusConflict, code)
}

func TestSessionErrors(t *testing.T) {
	e := newEnv(t)
	cases := []struct {
		name, method, path, body string
		want                     int
	}{
		{"missing participant", http.MethodPost, "/sessions", `{}`, http.StatusBadRequest},
		{"bad policy", http.MethodPost, "/sessions", `{"participant":"x","policy":"avg"}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, "/sessions", `{`, http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/sessions/nope", "", http.StatusNotFound},
		{"submit unknown", http.MethodPost, "/sessions/nope/submit", "", http.StatusNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			code, body := e.do(t, c.method, c.path, c.body, "")
			assert.Equal(t, c.want, code, string(body))
		})
	}

	_, body := e.do(t, http.MethodPost, "/sessions", `{"participant":"x"}`, "")
	var s session.Session
	require.NoError(t, json.Unmarshal(body, &s))
	code, _ := e.do(t, http.MethodPost, "/sessions/"+s.ID+"/answers", `{"question_id":"Q99","value":3}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = e.do(t, http.MethodPost, "/sessions/"+s.ID+"/answers", `{}`, "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPrescriptions_AdminOnlyWrites(t *testing.T) {
	e := newEnv(t)

	code, body := e.do(t, http.MethodGet, "/prescriptions/PDIMA", "", "")
	require.Equal(t, http.StatusOK, code, string(body))
	code, _ = e.do(t, http.MethodGet, "/prescriptions/xxxxx", "", "")
	assert.Equal(t, http.StatusBadRequest, code)

	update := `{"title":"Custom","body":"Edited text"}`
	code, _ = e.do(t, http.MethodPut, "/prescriptions/pdima", update, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	analyst, err := e.authSvc.IssueJWT("ops", "analyst")
	require.NoError(t, err)
	code, _ = e.do(t, http.MethodPut, "/prescriptions/pdima", update, analyst)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = e.do(t, http.MethodPost, "/auth/login", `{"username":"admin","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, code)
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(body, &tok))

	code, body = e.do(t, http.MethodPut, "/prescriptions/pdima", update, tok.AccessToken)
	require.Equal(t, http.StatusOK, code, string(body))

	_, body = e.do(t, http.MethodGet, "/prescriptions/pdima", "", "")
	assert.Contains(t, string(body), "Edited text")

	code, body = e.do(t, http.MethodGet, "/prescriptions", "", analyst)
	require.Equal(t, http.StatusOK, code)
	var all []prescription.Prescription
	require.NoError(t, json.Unmarshal(body, &all))
	assert.Len(t, all, 32)
}

func TestListSessions_RequiresRole(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/sessions", `{"participant":"a"}`, "")

	code, _ := e.do(t, http.MethodGet, "/sessions", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	analyst, err := e.authSvc.IssueJWT("ops", "analyst")
	require.NoError(t, err)
	code, body := e.do(t, http.MethodGet, "/sessions?status=in_progress", "", analyst)
	require.Equal(t, http.StatusOK, code)
	var list []session.Session
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	code, _ := e.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = e.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, code)
}
