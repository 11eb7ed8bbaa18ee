package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/urna-cipa/internal/domain/vote"
	"github.com/gravadigital/urna-cipa/internal/testutil"
)

func newVoteRouter(t *testing.T, maxPhotoSize int64) (*gin.Engine, *testutil.MemoryDB, *testutil.MemoryEvidence) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewMemoryDB()
	ev := testutil.NewMemoryEvidence()
	voting := vote.NewVotingService(db, ev, vote.WithMaxPhotoSize(maxPhotoSize))
	h := NewVoteHandler(voting, nil, nil)

	router := gin.New()
	router.POST("/api/vote", h.CastVote)
	return router, db, ev
}

func postVote(t *testing.T, router *gin.Engine, payload map[string]any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/vote", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestMaxVoteBodySize(t *testing.T) {
	assert.Equal(t, int64(0), maxVoteBodySize(0))
	assert.Equal(t, int64(4+voteBodySlack), maxVoteBodySize(1))
	assert.Equal(t, int64(4+voteBodySlack), maxVoteBodySize(3))
	assert.Equal(t, int64(13981016+voteBodySlack), maxVoteBodySize(10485760))
}

func TestCastVoteRejectsOversizedBody(t *testing.T) {
	router, db, ev := newVoteRouter(t, 1024)

	photo := "data:image/png;base64," + strings.Repeat("A", int(maxVoteBodySize(1024)))
	w, body := postVote(t, router, map[string]any{"cpf": "11122233344", "number": 0, "photo": photo})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(vote.KindInvalidInput), body["kind"])
	assert.Empty(t, db.LedgerRows("11122233344"))
	assert.Equal(t, 0, ev.Len())
}

func TestCastVoteWithinBodyLimit(t *testing.T) {
	router, db, ev := newVoteRouter(t, 1024)

	w, body := postVote(t, router, map[string]any{"cpf": "11122233344", "number": "0", "photo": testutil.PhotoDataURI})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "VOTO EM BRANCO", body["candidate_name"])
	assert.Len(t, db.LedgerRows("11122233344"), 1)
	assert.Equal(t, 1, ev.Len())
}
