package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gridclash/gridclash-server/internal/game"
	"github.com/gridclash/gridclash-server/internal/matchmaking"
	"go.uber.org/zap"
)

// DeckSource resolves a user's deck into validated card instances.
// repository.DeckRepository is the production implementation.
type DeckSource interface {
	InstancesForDeck(ctx context.Context, userID, deckID string) ([]*game.CardInstance, error)
}

// Options carries the gameplay tunables the server needs.
type Options struct {
	DefaultDifficulty string
	ReplayDir         string
	RecordReplays     bool
}

// Server is the HTTP and websocket surface over the game engine. Identity
// is resolved by the authenticator; the engine enforces participation and
// turn order.
type Server struct {
	engine   *game.Engine
	decks    DeckSource
	queue    *matchmaking.Queue
	hub      *Hub
	auth     *Authenticator
	recorder *game.Recorder
	opts     Options
	logger   *zap.Logger
}

// NewServer wires the engine, matchmaking queue and websocket hub together.
// The hub's Run loop is the caller's responsibility.
func NewServer(engine *game.Engine, decks DeckSource, auth *Authenticator, opts Options, logger *zap.Logger) *Server {
	s := &Server{
		engine: engine,
		decks:  decks,
		hub:    NewHub(logger),
		auth:   auth,
		opts:   opts,
		logger: logger,
	}
	s.queue = matchmaking.NewQueue(s.startMatch, logger)

	engine.SetNotificationHandler(s.hub.BroadcastView)
	if opts.RecordReplays {
		s.recorder = game.NewRecorder(logger)
		engine.SetRecorder(s.recorder)
		engine.SetCompletionHandler(s.archiveReplay)
	}
	return s
}

// Hub exposes the websocket hub so main can run its loop.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler builds the route table. Everything except the health check sits
// behind authentication.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /games", s.handleJoinQueue)
	api.HandleFunc("DELETE /games/queue", s.handleLeaveQueue)
	api.HandleFunc("POST /games/solo", s.handleCreateSolo)
	api.HandleFunc("GET /games/{id}", s.handleGetGame)
	api.HandleFunc("POST /games/{id}/actions", s.handleAction)
	api.HandleFunc("POST /games/{id}/ai-action", s.handleAIAction)
	api.HandleFunc("GET /games/{id}/ws", s.handleWS)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.Handle("/", s.auth.Middleware(api))

	return s.logRequests(root)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type joinQueueRequest struct {
	DeckID string `json:"deck_id"`
}

type queueResponse struct {
	Status   string         `json:"status"`
	Position int            `json:"position,omitempty"`
	Game     *game.GameView `json:"game,omitempty"`
}

func (s *Server) handleJoinQueue(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	var req joinQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: %v", game.ErrValidation, err))
		return
	}

	result, err := s.queue.Enqueue(r.Context(), userID, req.DeckID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	if !result.Matched {
		writeJSON(w, http.StatusAccepted, queueResponse{Status: "waiting", Position: result.Position})
		return
	}

	sess, err := s.engine.Get(result.GameID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	view := sess.View(userID)
	writeJSON(w, http.StatusCreated, queueResponse{Status: "matched", Game: &view})
}

func (s *Server) handleLeaveQueue(w http.ResponseWriter, r *http.Request) {
	left := s.queue.Leave(UserID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]bool{"left": left})
}

// startMatch resolves both decks and creates the game. Deck failures
// surface to the second enqueuer; the queue requeues the waiting opponent.
func (s *Server) startMatch(ctx context.Context, a, b matchmaking.Ticket) (string, error) {
	deckA, err := s.decks.InstancesForDeck(ctx, a.UserID, a.DeckID)
	if err != nil {
		return "", err
	}
	deckB, err := s.decks.InstancesForDeck(ctx, b.UserID, b.DeckID)
	if err != nil {
		return "", err
	}

	sess, err := s.engine.CreateGame(ctx, []game.PlayerSetup{
		{UserID: a.UserID, Instances: deckA},
		{UserID: b.UserID, Instances: deckB},
	})
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

type createSoloRequest struct {
	DeckID     string `json:"deck_id"`
	Difficulty string `json:"difficulty,omitempty"`
}

func (s *Server) handleCreateSolo(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())

	var req createSoloRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: %v", game.ErrValidation, err))
		return
	}

	instances, err := s.decks.InstancesForDeck(r.Context(), userID, req.DeckID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = s.opts.DefaultDifficulty
	}

	sess, err := s.engine.CreateSoloGame(r.Context(),
		game.PlayerSetup{UserID: userID, Instances: instances},
		game.ParseDifficulty(difficulty))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.View(userID))
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, userID, err := s.sessionForRequest(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View(userID))
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.Context())
	gameID := r.PathValue("id")

	var action game.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: %v", game.ErrValidation, err))
		return
	}
	action.PlayerID = userID

	view, err := s.engine.SubmitAction(r.Context(), gameID, action)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAIAction(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.sessionForRequest(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	view, err := s.engine.SubmitAIAction(r.Context(), sess.ID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, userID, err := s.sessionForRequest(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.hub.ServeWS(w, r, sess.ID, userID)
}

// sessionForRequest loads the game and verifies the caller participates.
func (s *Server) sessionForRequest(r *http.Request) (*game.Session, string, error) {
	userID := UserID(r.Context())
	sess, err := s.engine.Get(r.PathValue("id"))
	if err != nil {
		return nil, "", err
	}
	if !sess.IsParticipant(userID) {
		return nil, "", fmt.Errorf("%w: %s is not a participant", game.ErrUnauthorized, userID)
	}
	return sess, userID, nil
}

// archiveReplay writes the finished game's action log to disk and drops it
// from memory.
func (s *Server) archiveReplay(result game.Result) {
	log, ok := s.recorder.Log(result.GameID)
	if !ok {
		return
	}
	if s.opts.ReplayDir != "" {
		if err := log.SaveToFile(s.opts.ReplayDir); err != nil {
			if s.logger != nil {
				s.logger.Error("failed to archive replay",
					zap.String("game_id", result.GameID),
					zap.Error(err),
				)
			}
			return
		}
		if s.logger != nil {
			s.logger.Info("replay archived",
				zap.String("game_id", result.GameID),
				zap.String("dir", s.opts.ReplayDir),
			)
		}
	}
	s.recorder.Clear(result.GameID)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack keeps websocket upgrades working through the logging wrapper.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		if s.logger != nil {
			s.logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("duration", time.Since(start)),
			)
		}
	})
}
