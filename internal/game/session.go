package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/gridclash/gridclash-server/internal/catalog"
	"go.uber.org/zap"
)

// ActionType enumerates the player-submittable actions.
type ActionType string

const (
	ActionPlaceCard ActionType = "placeCard"
	ActionEndTurn   ActionType = "endTurn"
	ActionSurrender ActionType = "surrender"
)

// Action is one submitted player action.
type Action struct {
	Type       ActionType `json:"action_type"`
	PlayerID   string     `json:"-"`
	InstanceID string     `json:"user_card_instance_id,omitempty"`
	Position   *Position  `json:"position,omitempty"`
}

// PlayerSetup bundles a participant with their validated deck instances.
type PlayerSetup struct {
	UserID    string
	Instances []*CardInstance
}

// Session is the addressable unit wrapping board state, two player states
// and turn metadata. All mutations are serialized through the session mutex:
// at most one in-flight action per game. Reads serve the last committed
// snapshot.
type Session struct {
	ID         string
	Mode       Mode
	AIPlayerID string
	Difficulty string
	CreatedAt  time.Time

	mu          sync.RWMutex
	state       *GameState
	cache       *HydratedCache
	abilities   *AbilityEngine
	logger      *zap.Logger
	handSize    int
	version     int64
	completedAt time.Time
}

// NewSession creates a pending session for the given participants.
func NewSession(id string, mode Mode, setups []PlayerSetup, handSize int, cat *catalog.Catalog, abilities *AbilityEngine, logger *zap.Logger) (*Session, error) {
	if len(setups) != 2 {
		return nil, fmt.Errorf("%w: a session requires exactly two participants", ErrValidation)
	}
	if handSize <= 0 {
		handSize = 5
	}

	var instances []*CardInstance
	players := make(map[string]*PlayerState, 2)
	order := make([]string, 0, 2)
	for _, setup := range setups {
		deck := make([]string, 0, len(setup.Instances))
		for _, inst := range setup.Instances {
			deck = append(deck, inst.ID)
			instances = append(instances, inst)
		}
		players[setup.UserID] = &PlayerState{
			UserID:  setup.UserID,
			Deck:    deck,
			Hand:    make([]string, 0, handSize),
			Discard: make([]string, 0),
		}
		order = append(order, setup.UserID)
	}

	state := &GameState{
		Board:         NewBoard(),
		Players:       players,
		PlayerOrder:   order,
		TurnNumber:    0,
		CurrentPlayer: order[0],
		Status:        StatusPending,
		Hydrated:      make(map[string]*HydratedCard),
	}

	return &Session{
		ID:        id,
		Mode:      mode,
		CreatedAt: time.Now().UTC(),
		state:     state,
		cache:     NewHydratedCache(cat, instances),
		abilities: abilities,
		logger:    logger,
		handSize:  handSize,
	}, nil
}

// Start transitions the session from pending to active, drawing both decks
// up to the starting hand size.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Status != StatusPending {
		return fmt.Errorf("%w: session already started", ErrIllegalMove)
	}

	for _, id := range s.state.PlayerOrder {
		player := s.state.Players[id]
		for len(player.Hand) < s.handSize && len(player.Deck) > 0 {
			player.Hand = append(player.Hand, player.Deck[0])
			player.Deck = player.Deck[1:]
		}
		// Hand cards are part of the initial snapshot, so they are
		// hydrated up front; everything else stays lazy.
		for _, instanceID := range player.Hand {
			if _, err := s.cache.Get(instanceID); err != nil {
				return err
			}
		}
	}

	s.state.Status = StatusActive
	s.state.TurnNumber = 1
	s.commitLocked()

	if s.logger != nil {
		s.logger.Info("game session started",
			zap.String("game_id", s.ID),
			zap.String("mode", string(s.Mode)),
			zap.Strings("players", s.state.PlayerOrder),
		)
	}
	return nil
}

// Apply validates and executes one action. Each call holds the session lock
// for the whole cascade, guaranteeing atomic visibility of before/after
// states; there is no mid-resolution cancellation.
func (s *Session) Apply(action Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.Player(action.PlayerID); !ok {
		return fmt.Errorf("%w: %s is not a participant", ErrUnauthorized, action.PlayerID)
	}
	if s.state.Status != StatusActive {
		return fmt.Errorf("%w: game is %s", ErrIllegalMove, s.state.Status)
	}

	switch action.Type {
	case ActionSurrender:
		// Accepted from either player regardless of turn.
		s.completeLocked(s.state.Opponent(action.PlayerID))
		s.commitLocked()
		return nil

	case ActionPlaceCard, ActionEndTurn:
		if action.PlayerID != s.state.CurrentPlayer {
			return fmt.Errorf("%w: not %s's turn", ErrIllegalMove, action.PlayerID)
		}
	default:
		return fmt.Errorf("%w: unknown action type %q", ErrValidation, action.Type)
	}

	if action.Type == ActionEndTurn {
		s.endTurnLocked()
		s.checkTerminalLocked()
		s.commitLocked()
		return nil
	}

	// placeCard
	if action.Position == nil {
		return fmt.Errorf("%w: position is required", ErrValidation)
	}
	if action.InstanceID == "" {
		return fmt.Errorf("%w: user_card_instance_id is required", ErrValidation)
	}

	resolver := NewResolver(s.state, s.cache, s.abilities, s.logger)
	if err := resolver.ResolvePlacement(action.PlayerID, action.InstanceID, *action.Position); err != nil {
		return err
	}

	s.refillHandLocked(action.PlayerID)
	s.checkTerminalLocked()

	// A successful placement does not pass the turn; endTurn is explicit.
	// But when no legal placement remains for the current player the
	// controller auto-advances, and keeps advancing past players who
	// cannot act at all.
	if s.state.Status == StatusActive {
		s.autoAdvanceLocked()
	}

	s.commitLocked()
	return nil
}

// refillHandLocked draws from the player's remaining deck back up to the
// configured hand size after a placement.
func (s *Session) refillHandLocked(playerID string) {
	player := s.state.Players[playerID]
	for len(player.Hand) < s.handSize && len(player.Deck) > 0 {
		drawn := player.Deck[0]
		player.Deck = player.Deck[1:]
		player.Hand = append(player.Hand, drawn)
		if _, err := s.cache.Get(drawn); err != nil && s.logger != nil {
			s.logger.Warn("failed to hydrate drawn card",
				zap.String("game_id", s.ID),
				zap.String("instance_id", drawn),
				zap.Error(err),
			)
		}
	}
}

// CanAct reports whether the player has a hand card and a placeable cell.
func (s *Session) CanAct(playerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canActLocked(playerID)
}

func (s *Session) canActLocked(playerID string) bool {
	player, ok := s.state.Player(playerID)
	if !ok {
		return false
	}
	return len(player.Hand) > 0 && s.state.Board.HasPlaceableCell()
}

// autoAdvanceLocked skips players with no legal placement. If neither player
// can act while the board is not full, the game cannot progress and is
// completed by score.
func (s *Session) autoAdvanceLocked() {
	for range s.state.PlayerOrder {
		if s.canActLocked(s.state.CurrentPlayer) {
			return
		}
		s.endTurnLocked()
		s.checkTerminalLocked()
		if s.state.Status != StatusActive {
			return
		}
	}
	// Full cycle with no playable action: finish on current score.
	s.finishByScoreLocked()
}

// endTurnLocked runs the end-of-turn sequence for the current player and
// hands the turn to the opponent.
func (s *Session) endTurnLocked() {
	ending := s.state.CurrentPlayer
	next := s.state.Opponent(ending)

	s.fireTurnMoment(catalog.TriggerOnTurnEnd, ending)
	s.state.Board.TickTileEffects(ending)
	for _, card := range s.cache.Snapshot() {
		card.TickModifiers()
	}

	s.state.CurrentPlayer = next
	s.fireTurnMoment(catalog.TriggerOnTurnStart, next)
	s.state.TurnNumber++

	if s.logger != nil {
		s.logger.Debug("turn advanced",
			zap.String("game_id", s.ID),
			zap.String("from", ending),
			zap.String("to", next),
			zap.Int("turn", s.state.TurnNumber),
		)
	}
}

// fireTurnMoment invokes the moment for every board card owned by player,
// in scan order.
func (s *Session) fireTurnMoment(moment catalog.TriggerMoment, player string) {
	res := NewResolution()
	for _, pos := range ScanPositions() {
		cell := s.state.Board.At(pos)
		if !cell.Occupied() || cell.Owner != player {
			continue
		}
		card, err := s.cache.Get(cell.InstanceID)
		if err != nil {
			continue
		}
		sp := pos
		s.abilities.Invoke(moment, &EffectContext{
			State:      s.state,
			Cache:      s.cache,
			Subject:    card,
			SubjectPos: &sp,
			Controller: player,
			Resolution: res,
		})
	}
}

// checkTerminalLocked applies the board-full terminal condition.
func (s *Session) checkTerminalLocked() {
	if s.state.Status != StatusActive {
		return
	}
	if !s.state.Board.Full() {
		return
	}
	s.finishByScoreLocked()
}

func (s *Session) finishByScoreLocked() {
	s.state.RecomputeScores()
	var winner string
	a := s.state.Players[s.state.PlayerOrder[0]]
	b := s.state.Players[s.state.PlayerOrder[1]]
	switch {
	case a.Score > b.Score:
		winner = a.UserID
	case b.Score > a.Score:
		winner = b.UserID
	}
	s.completeLocked(winner)
}

// completeLocked marks the game completed. An empty winner means a draw.
func (s *Session) completeLocked(winner string) {
	s.state.Status = StatusCompleted
	if winner != "" {
		w := winner
		s.state.Winner = &w
	}
	s.completedAt = time.Now().UTC()

	if s.logger != nil {
		s.logger.Info("game session completed",
			zap.String("game_id", s.ID),
			zap.String("winner", winner),
		)
	}
}

// commitLocked publishes the post-mutation snapshot: scores are refreshed,
// the hydrated cache is folded into the state and the version advances.
func (s *Session) commitLocked() {
	s.state.RecomputeScores()
	s.state.Hydrated = s.cache.Snapshot()
	s.version++
}

// Version returns the committed snapshot version.
func (s *Session) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Status returns the current lifecycle status.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Status
}

// CurrentPlayer returns the player whose turn it is.
func (s *Session) CurrentPlayer() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentPlayer
}

// Players returns the participant user ids in turn order.
func (s *Session) Players() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.state.PlayerOrder...)
}

// IsParticipant reports whether the user plays in this session.
func (s *Session) IsParticipant(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.state.Player(userID)
	return ok
}

// Result summarizes a completed session.
type Result struct {
	GameID   string
	Winner   string // empty on draw
	Scores   map[string]int
	Duration time.Duration
}

// Result returns the completion summary, valid once Status is completed.
func (s *Session) Result() Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scores := make(map[string]int, len(s.state.PlayerOrder))
	for _, id := range s.state.PlayerOrder {
		scores[id] = s.state.Players[id].Score
	}
	winner := ""
	if s.state.Winner != nil {
		winner = *s.state.Winner
	}
	return Result{
		GameID:   s.ID,
		Winner:   winner,
		Scores:   scores,
		Duration: s.completedAt.Sub(s.CreatedAt),
	}
}

// Snapshot marshals the committed state to canonical JSON.
func (s *Session) Snapshot() ([]byte, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := s.state.Marshal()
	if err != nil {
		return nil, 0, err
	}
	return data, s.version, nil
}
