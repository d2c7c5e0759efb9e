package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gridclash/gridclash-server/internal/catalog"
	"go.uber.org/zap"
)

// SnapshotStore persists committed game snapshots. SaveSnapshot must reject
// writes against a stale version with ErrConflict.
type SnapshotStore interface {
	CreateGame(ctx context.Context, sess *Session, snapshot []byte) error
	SaveSnapshot(ctx context.Context, gameID string, snapshot []byte, version int64) error
	MarkCompleted(ctx context.Context, gameID string, winner string) error
}

// CompletionHandler receives the result of a completed game. Downstream
// services (currency, achievements, leaderboard, mail) react to it; the
// engine itself never writes reward state.
type CompletionHandler func(Result)

// NotificationHandler receives the fresh view after each committed action,
// for realtime fan-out to clients.
type NotificationHandler func(gameID string, view GameView)

// Engine owns all live game sessions, keyed by game id. Mutations on one
// game serialize through its session; the engine map itself only guards
// registration.
type Engine struct {
	catalog   *catalog.Catalog
	abilities *AbilityEngine
	store     SnapshotStore
	logger    *zap.Logger
	handSize  int

	mu       sync.RWMutex
	sessions map[string]*Session
	recorder *Recorder

	onComplete CompletionHandler
	onNotify   NotificationHandler
}

// NewEngine creates an engine over the given catalog. store may be nil for
// in-memory play (tests).
func NewEngine(cat *catalog.Catalog, store SnapshotStore, handSize int, logger *zap.Logger) *Engine {
	return &Engine{
		catalog:   cat,
		abilities: NewAbilityEngine(cat, logger),
		store:     store,
		logger:    logger,
		handSize:  handSize,
		sessions:  make(map[string]*Session),
	}
}

// SetRecorder enables action logging for replay verification. Recording
// happens inside the engine so AI follow-up actions are captured too.
func (e *Engine) SetRecorder(recorder *Recorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorder = recorder
}

// SetCompletionHandler registers the completion event consumer.
func (e *Engine) SetCompletionHandler(handler CompletionHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onComplete = handler
}

// SetNotificationHandler registers the realtime view consumer.
func (e *Engine) SetNotificationHandler(handler NotificationHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onNotify = handler
}

// CreateGame starts a PvP session from two validated decks.
func (e *Engine) CreateGame(ctx context.Context, setups []PlayerSetup) (*Session, error) {
	return e.createGame(ctx, ModePvP, setups, "", "")
}

// CreateSoloGame starts a session against the AI. The AI deck is generated
// from the catalog so solo play needs no second inventory.
func (e *Engine) CreateSoloGame(ctx context.Context, human PlayerSetup, difficulty Difficulty) (*Session, error) {
	aiID := "ai-" + uuid.NewString()
	aiSetup := PlayerSetup{UserID: aiID}
	for i, defID := range e.catalog.CardIDs() {
		if i >= len(human.Instances) && i >= e.handSize {
			break
		}
		aiSetup.Instances = append(aiSetup.Instances, &CardInstance{
			ID:           fmt.Sprintf("%s-card-%d", aiID, i),
			OwnerID:      aiID,
			DefinitionID: defID,
			Level:        1,
		})
	}
	return e.createGame(ctx, ModeSolo, []PlayerSetup{human, aiSetup}, aiID, string(difficulty))
}

func (e *Engine) createGame(ctx context.Context, mode Mode, setups []PlayerSetup, aiPlayerID, difficulty string) (*Session, error) {
	gameID := uuid.NewString()
	sess, err := NewSession(gameID, mode, setups, e.handSize, e.catalog, e.abilities, e.logger)
	if err != nil {
		return nil, err
	}
	sess.AIPlayerID = aiPlayerID
	sess.Difficulty = difficulty

	if err := sess.Start(); err != nil {
		return nil, err
	}

	if e.store != nil {
		snapshot, _, err := sess.Snapshot()
		if err != nil {
			return nil, err
		}
		if err := e.store.CreateGame(ctx, sess, snapshot); err != nil {
			return nil, fmt.Errorf("persist new game: %w", err)
		}
	}

	e.mu.Lock()
	e.sessions[gameID] = sess
	recorder := e.recorder
	e.mu.Unlock()

	if recorder != nil {
		recorder.StartRecording(gameID, mode, e.handSize, setups)
	}

	if e.logger != nil {
		e.logger.Info("game created",
			zap.String("game_id", gameID),
			zap.String("mode", string(mode)),
		)
	}
	return sess, nil
}

// Get returns the live session for the game id.
func (e *Engine) Get(gameID string) (*Session, error) {
	e.mu.RLock()
	sess, ok := e.sessions[gameID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: game %s", ErrNotFound, gameID)
	}
	return sess, nil
}

// SubmitAction applies one action to a game, persists the committed
// snapshot and emits completion/notification events.
func (e *Engine) SubmitAction(ctx context.Context, gameID string, action Action) (GameView, error) {
	sess, err := e.Get(gameID)
	if err != nil {
		return GameView{}, err
	}

	wasActive := sess.Status() == StatusActive

	if err := sess.Apply(action); err != nil {
		return GameView{}, err
	}

	if err := e.persist(ctx, sess); err != nil {
		return GameView{}, err
	}

	e.mu.RLock()
	recorder := e.recorder
	e.mu.RUnlock()
	if recorder != nil {
		recorder.Record(gameID, action)
	}

	if wasActive && sess.Status() == StatusCompleted {
		e.emitCompletion(ctx, sess)
	}
	e.notify(sess)

	return sess.View(action.PlayerID), nil
}

// SubmitAIAction runs one AI turn through the identical action path.
func (e *Engine) SubmitAIAction(ctx context.Context, gameID string) (GameView, error) {
	sess, err := e.Get(gameID)
	if err != nil {
		return GameView{}, err
	}
	if sess.Mode != ModeSolo {
		return GameView{}, fmt.Errorf("%w: not a solo game", ErrValidation)
	}
	if sess.Status() != StatusActive {
		return GameView{}, fmt.Errorf("%w: game is not active", ErrIllegalMove)
	}
	if sess.CurrentPlayer() != sess.AIPlayerID {
		return GameView{}, fmt.Errorf("%w: not the AI's turn", ErrIllegalMove)
	}

	action, err := sess.DecideAction(sess.AIPlayerID, ParseDifficulty(sess.Difficulty))
	if err != nil {
		return GameView{}, err
	}

	view, err := e.SubmitAction(ctx, gameID, action)
	if err != nil {
		return GameView{}, err
	}

	// A placement leaves the turn with the AI; the AI always ends its turn
	// explicitly so control returns to the human.
	if action.Type == ActionPlaceCard && sess.Status() == StatusActive && sess.CurrentPlayer() == sess.AIPlayerID {
		return e.SubmitAction(ctx, gameID, Action{Type: ActionEndTurn, PlayerID: sess.AIPlayerID})
	}
	return view, nil
}

// persist writes the committed snapshot; a stale-version write is retried
// once with the fresh snapshot before surfacing ErrConflict.
func (e *Engine) persist(ctx context.Context, sess *Session) error {
	if e.store == nil {
		return nil
	}

	for attempt := 0; attempt < 2; attempt++ {
		snapshot, version, err := sess.Snapshot()
		if err != nil {
			return err
		}
		err = e.store.SaveSnapshot(ctx, sess.ID, snapshot, version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return fmt.Errorf("persist snapshot: %w", err)
		}
		if e.logger != nil {
			e.logger.Warn("snapshot version conflict, retrying with fresh state",
				zap.String("game_id", sess.ID),
				zap.Int64("version", version),
			)
		}
	}
	return fmt.Errorf("%w: snapshot for game %s", ErrConflict, sess.ID)
}

func (e *Engine) emitCompletion(ctx context.Context, sess *Session) {
	result := sess.Result()

	if e.store != nil {
		if err := e.store.MarkCompleted(ctx, sess.ID, result.Winner); err != nil && e.logger != nil {
			e.logger.Error("failed to mark game completed",
				zap.String("game_id", sess.ID),
				zap.Error(err),
			)
		}
	}

	e.mu.RLock()
	handler := e.onComplete
	e.mu.RUnlock()
	if handler != nil {
		// Run asynchronously so reward bookkeeping never blocks the
		// action path.
		go handler(result)
	}

	if e.logger != nil {
		e.logger.Info("game completed",
			zap.String("game_id", sess.ID),
			zap.String("winner", result.Winner),
			zap.Duration("duration", result.Duration),
		)
	}
}

func (e *Engine) notify(sess *Session) {
	e.mu.RLock()
	handler := e.onNotify
	e.mu.RUnlock()
	if handler != nil {
		go handler(sess.ID, sess.View(""))
	}
}
