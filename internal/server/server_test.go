package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gridclash/gridclash-server/internal/catalog"
	"github.com/gridclash/gridclash-server/internal/game"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

// stubDecks serves fixed decks keyed by "<user>/<deck>".
type stubDecks struct {
	decks map[string][]*game.CardInstance
}

func (s *stubDecks) InstancesForDeck(ctx context.Context, userID, deckID string) ([]*game.CardInstance, error) {
	instances, ok := s.decks[userID+"/"+deckID]
	if !ok {
		return nil, fmt.Errorf("%w: deck %s", game.ErrNotFound, deckID)
	}
	return instances, nil
}

func plainDeck(userID string, n int) []*game.CardInstance {
	instances := make([]*game.CardInstance, 0, n)
	for i := 0; i < n; i++ {
		instances = append(instances, &game.CardInstance{
			ID:           fmt.Sprintf("%s-%d", userID, i),
			OwnerID:      userID,
			DefinitionID: "card-footman",
			Level:        1,
		})
	}
	return instances
}

func newTestServer(t *testing.T) (*Server, *stubDecks) {
	t.Helper()

	cat := catalog.New(zaptest.NewLogger(t))
	require.NoError(t, catalog.Seed(cat))

	logger := zaptest.NewLogger(t)
	engine := game.NewEngine(cat, game.NewMemoryStore(logger), 5, logger)

	decks := &stubDecks{decks: map[string][]*game.CardInstance{
		"alice/deck-a": plainDeck("alice", 6),
		"bob/deck-b":   plainDeck("bob", 6),
	}}

	auth := NewAuthenticator(nil, logger)
	return NewServer(engine, decks, auth, Options{DefaultDifficulty: "medium"}, logger), decks
}

func doJSON(t *testing.T, handler http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthzNeedsNoAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingIdentityIsRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/games", "", joinQueueRequest{DeckID: "deck-a"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQueueFirstWaitsSecondMatches(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/games", "alice", joinQueueRequest{DeckID: "deck-a"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var waiting queueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &waiting))
	require.Equal(t, "waiting", waiting.Status)
	require.Equal(t, 1, waiting.Position)

	rec = doJSON(t, handler, http.MethodPost, "/games", "bob", joinQueueRequest{DeckID: "deck-b"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var matched queueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matched))
	require.Equal(t, "matched", matched.Status)
	require.NotNil(t, matched.Game)
	require.Equal(t, game.StatusActive, matched.Game.Status)
	require.Equal(t, "alice", matched.Game.CurrentPlayer)
}

func TestQueueUnknownDeckFailsAndRequeuesOpponent(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/games", "alice", joinQueueRequest{DeckID: "deck-a"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/games", "bob", joinQueueRequest{DeckID: "deck-missing"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	// alice is still queued, so leaving succeeds.
	rec = doJSON(t, handler, http.MethodDelete, "/games/queue", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"left": true}`, rec.Body.String())
}

func createPvPGame(t *testing.T, handler http.Handler) string {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/games", "alice", joinQueueRequest{DeckID: "deck-a"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	rec = doJSON(t, handler, http.MethodPost, "/games", "bob", joinQueueRequest{DeckID: "deck-b"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var matched queueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matched))
	require.NotNil(t, matched.Game)
	return matched.Game.GameID
}

func TestGetGameRequiresParticipation(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()
	gameID := createPvPGame(t, handler)

	rec := doJSON(t, handler, http.MethodGet, "/games/"+gameID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/games/"+gameID, "mallory", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/games/nope", "alice", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitActionFlowsThroughEngine(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()
	gameID := createPvPGame(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/games/"+gameID+"/actions", "alice", map[string]any{
		"action_type":           "placeCard",
		"user_card_instance_id": "alice-0",
		"position":              map[string]int{"row": 1, "col": 1},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var view game.GameView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.NotNil(t, view.Board[1][1].Card)
	require.Equal(t, "alice-0", view.Board[1][1].Card.InstanceID)

	rec = doJSON(t, handler, http.MethodPost, "/games/"+gameID+"/actions", "alice", map[string]any{
		"action_type": "endTurn",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "bob", view.CurrentPlayer)
}

func TestSubmitActionOutOfTurnIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()
	gameID := createPvPGame(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/games/"+gameID+"/actions", "bob", map[string]any{
		"action_type": "endTurn",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitActionMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()
	gameID := createPvPGame(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/games/"+gameID+"/actions", strings.NewReader("{not json"))
	req.Header.Set("X-User-ID", "alice")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSoloGameAndAITurn(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/games/solo", "alice", createSoloRequest{DeckID: "deck-a", Difficulty: "easy"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var view game.GameView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, game.ModeSolo, view.Mode)
	require.Equal(t, "alice", view.CurrentPlayer)
	gameID := view.GameID

	// AI cannot act during the human turn.
	rec = doJSON(t, handler, http.MethodPost, "/games/"+gameID+"/ai-action", "alice", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/games/"+gameID+"/actions", "alice", map[string]any{
		"action_type":           "placeCard",
		"user_card_instance_id": "alice-0",
		"position":              map[string]int{"row": 0, "col": 0},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, handler, http.MethodPost, "/games/"+gameID+"/actions", "alice", map[string]any{
		"action_type": "endTurn",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/games/"+gameID+"/ai-action", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "alice", view.CurrentPlayer)
}

func TestBearerAuthAgainstConfiguredTokens(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	auth := NewAuthenticator(map[string]string{"alice": string(hash)}, logger)
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"user": UserID(r.Context())})
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer alice:s3cret")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"user": "alice"}`, rec.Body.String())

	for _, header := range []string{
		"",
		"Bearer alice:wrong",
		"Bearer mallory:s3cret",
		"Bearer alice",
		"Basic alice:s3cret",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		// X-User-ID must not bypass configured tokens.
		req.Header.Set("X-User-ID", "alice")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equalf(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}
