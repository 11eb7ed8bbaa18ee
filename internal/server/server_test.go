package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/urna-cipa/internal/config"
	"github.com/gravadigital/urna-cipa/internal/domain/employee"
	"github.com/gravadigital/urna-cipa/internal/domain/vote"
	"github.com/gravadigital/urna-cipa/internal/handlers"
	"github.com/gravadigital/urna-cipa/internal/live"
	"github.com/gravadigital/urna-cipa/internal/services"
	"github.com/gravadigital/urna-cipa/internal/testutil"
)

type stubHealth struct{ err error }

func (h stubHealth) Health() error { return h.err }

type testEnv struct {
	router     *gin.Engine
	db         *testutil.MemoryDB
	evidence   *testutil.MemoryEvidence
	rosterPath string
}

func newTestEnv(t *testing.T, health HealthChecker) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Server.Port = "0"
	cfg.Server.GinMode = gin.TestMode
	cfg.CORS.AllowOrigins = "*"
	cfg.Admin.Username = "admin"
	cfg.Admin.Password = "s3nha"
	cfg.Admin.JWTSecret = "test-secret"
	cfg.Admin.TokenTTL = time.Hour

	db := testutil.NewMemoryDB()
	ev := testutil.NewMemoryEvidence()
	rosterPath := filepath.Join(t.TempDir(), "colaboradores.csv")

	authSvc, err := services.NewAuthService(cfg)
	require.NoError(t, err)
	candidates := services.NewCandidateService(db.Candidates())
	roster := services.NewRosterService(db.Employees(), ';')
	reports := services.NewReportService(db.Candidates(), db.Employees(), db.VoterLogs())
	voting := vote.NewVotingService(db, ev)
	hub := live.NewHub(reports)

	srv := New(cfg, Dependencies{
		Votes:  handlers.NewVoteHandler(voting, candidates, roster).WithNotifier(hub),
		Admin:  handlers.NewAdminHandler(authSvc, roster, candidates, reports, ev, rosterPath),
		Tokens: authSvc,
		Health: health,
		Live:   hub,
	})

	return &testEnv{router: srv.Router(), db: db, evidence: ev, rosterPath: rosterPath}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	w, body := e.do(t, http.MethodPost, "/api/admin/login", map[string]string{"username": "admin", "password": "s3nha"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestCastVoteFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	payload := map[string]any{"cpf": "111.222.333-44", "number": "0", "photo": testutil.PhotoDataURI}

	w, body := env.do(t, http.MethodPost, "/api/vote", payload, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "VOTO EM BRANCO", body["candidate_name"])
	assert.Equal(t, 1, env.evidence.Len())

	w, body = env.do(t, http.MethodPost, "/vote", payload, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(vote.KindAlreadyVoted), body["kind"])
	assert.Equal(t, "CPF já registrou voto.", body["error"])
	assert.Equal(t, false, body["success"])

	assert.Equal(t, int64(1), env.db.Votes(0))
}

func TestCastVoteErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := map[string]struct {
		payload map[string]any
		status  int
		kind    vote.Kind
	}{
		"missing photo":      {map[string]any{"cpf": "11122233344", "number": 0}, http.StatusBadRequest, vote.KindInvalidInput},
		"missing number":     {map[string]any{"cpf": "11122233344", "photo": testutil.PhotoDataURI}, http.StatusBadRequest, vote.KindInvalidInput},
		"non numeric number": {map[string]any{"cpf": "11122233344", "number": "ab", "photo": testutil.PhotoDataURI}, http.StatusBadRequest, vote.KindInvalidInput},
		"bad photo":          {map[string]any{"cpf": "11122233344", "number": 0, "photo": "not-a-data-uri"}, http.StatusBadRequest, vote.KindInvalidInput},
		"unknown candidate":  {map[string]any{"cpf": "11122233344", "number": 55, "photo": testutil.PhotoDataURI}, http.StatusNotFound, vote.KindUnknownCandidate},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w, body := env.do(t, http.MethodPost, "/api/vote", tt.payload, "")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, string(tt.kind), body["kind"])
		})
	}

	assert.Equal(t, int64(0), env.db.TotalVotes())
	assert.Equal(t, 0, env.evidence.Len())
}

func TestEligibilityRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodGet, "/api/check-cpf/123.456.789-00", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["allowed"])
	assert.Equal(t, vote.EmptyRosterName, body["name"])

	env.db.AddEmployee(&employee.Employee{CPF: "12345678900", Name: "Ana Souza", Active: false})

	w, body = env.do(t, http.MethodGet, "/api/eligibility?cpf=12345678900", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["allowed"])
	assert.Equal(t, "Colaborador consta como INATIVO.", body["message"])
	assert.NotContains(t, body, "name")
}

func TestCandidateAndEmployeeLookup(t *testing.T) {
	env := newTestEnv(t, nil)
	env.db.AddCandidate("Ana Souza", "RH", 42)
	env.db.AddEmployee(&employee.Employee{CPF: "11122233344", Name: "Bruno Lima", Department: "TI", Active: true})

	w, body := env.do(t, http.MethodGet, "/api/candidates/42", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ana Souza", body["name"])
	assert.Equal(t, "RH", body["department"])

	w, _ = env.do(t, http.MethodGet, "/api/candidate?number=0", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodGet, "/candidate-info/77", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = env.do(t, http.MethodGet, "/api/employees/111.222.333-44", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["found"])
	assert.Equal(t, "Bruno Lima", body["name"])

	w, body = env.do(t, http.MethodGet, "/api/get-employee/00000000000", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["found"])
}

func TestAdminRequiresToken(t *testing.T) {
	env := newTestEnv(t, nil)

	w, _ := env.do(t, http.MethodGet, "/api/admin/stats", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/admin/login", map[string]string{"username": "admin", "password": "errada"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/admin/dashboard", nil, "forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/admin/live", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t)

	w, body := env.do(t, http.MethodPost, "/api/admin/candidates", map[string]string{"name": "Ana Souza", "department": "RH"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := body["data"].(map[string]any)
	number := int(data["number"].(float64))
	assert.GreaterOrEqual(t, number, 10)
	assert.LessOrEqual(t, number, 99)

	w, _ = env.do(t, http.MethodPost, "/api/admin/candidates", map[string]string{"name": "", "department": "RH"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.NoError(t, os.WriteFile(env.rosterPath, []byte("CPF;NOME;SETOR;CARGO;SITUACAO\n123.456.789-00;ANA;RH;Analista;Ativo\n;X;Y;Z;Ativo\n"), 0o644))
	w, body = env.do(t, http.MethodPost, "/api/admin/roster/import", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), body["imported"])

	w, _ = env.do(t, http.MethodPost, "/api/vote", map[string]any{"cpf": "12345678900", "number": number, "photo": testutil.PhotoDataURI}, "")
	require.Equal(t, http.StatusOK, w.Code)

	w, body = env.do(t, http.MethodGet, "/api/admin/stats", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total_eligible"])
	assert.Equal(t, float64(1), body["total_votes"])
	assert.Equal(t, float64(0), body["missing"])
	assert.Equal(t, float64(100), body["percent"])

	w, body = env.do(t, http.MethodGet, "/api/admin/dashboard", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	candidates := body["candidates"].([]any)
	require.Len(t, candidates, 2)
	assert.Equal(t, "Ana Souza", candidates[0].(map[string]any)["name"])
	assert.Len(t, body["logs"], 1)
}

func TestAdminEvidence(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t)

	w, _ := env.do(t, http.MethodPost, "/api/vote", map[string]any{"cpf": "11122233344", "number": 0, "photo": testutil.PhotoDataURI}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, body := env.do(t, http.MethodGet, "/api/admin/dashboard", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	logs := body["logs"].([]any)
	require.Len(t, logs, 1)
	ref := logs[0].(map[string]any)["photo_path"].(string)
	assert.Equal(t, "11122233344_0.png", ref)

	w, _ = env.do(t, http.MethodGet, "/api/admin/evidence/"+ref, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	photo, err := vote.DecodePhoto(testutil.PhotoDataURI, 0)
	require.NoError(t, err)
	assert.Equal(t, photo.Data, w.Body.Bytes())

	w, _ = env.do(t, http.MethodGet, "/api/admin/evidence/99988877766_0.png", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/admin/evidence/"+ref, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestImportRosterMissingFile(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.login(t)

	w, _ := env.do(t, http.MethodPost, "/api/admin/roster/import", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPing(t *testing.T) {
	w, _ := newTestEnv(t, stubHealth{}).do(t, http.MethodGet, "/ping", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = newTestEnv(t, stubHealth{err: errors.New("down")}).do(t, http.MethodGet, "/ping", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
