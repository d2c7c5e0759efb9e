package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gridclash/gridclash-server/internal/catalog"
	"go.uber.org/zap"
)

// ReplaySetup captures the inputs a game started from: participants and
// pristine copies of their deck instances. Instances are copied by value
// because gameplay may mutate them (permanent ownership conversion).
type ReplaySetup struct {
	Mode     Mode
	HandSize int
	Players  []ReplayPlayer
}

// ReplayPlayer is one participant's recorded setup.
type ReplayPlayer struct {
	UserID    string
	Instances []CardInstance
}

// ReplayLog is the recorded action sequence of one game. Re-applying the
// actions to the recorded setup reproduces the final state byte for byte,
// since resolution is a pure function of committed state and action.
type ReplayLog struct {
	GameID   string
	Recorded time.Time
	Setup    ReplaySetup
	Actions  []Action
}

// Recorder captures game setups and action sequences so finished games can
// be re-run for verification or archived to disk.
type Recorder struct {
	logger *zap.Logger

	mu   sync.RWMutex
	logs map[string]*ReplayLog
}

// NewRecorder creates an empty recorder.
func NewRecorder(logger *zap.Logger) *Recorder {
	return &Recorder{
		logger: logger,
		logs:   make(map[string]*ReplayLog),
	}
}

// StartRecording registers a game's setup before any action is applied.
func (rc *Recorder) StartRecording(gameID string, mode Mode, handSize int, setups []PlayerSetup) {
	log := &ReplayLog{
		GameID:   gameID,
		Recorded: time.Now().UTC(),
		Setup: ReplaySetup{
			Mode:     mode,
			HandSize: handSize,
		},
	}
	for _, setup := range setups {
		player := ReplayPlayer{UserID: setup.UserID}
		for _, inst := range setup.Instances {
			player.Instances = append(player.Instances, *inst)
		}
		log.Setup.Players = append(log.Setup.Players, player)
	}

	rc.mu.Lock()
	rc.logs[gameID] = log
	rc.mu.Unlock()

	if rc.logger != nil {
		rc.logger.Debug("replay recording started", zap.String("game_id", gameID))
	}
}

// Record appends one applied action to the game's log. Only successfully
// applied actions should be recorded.
func (rc *Recorder) Record(gameID string, action Action) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	log, ok := rc.logs[gameID]
	if !ok {
		return
	}
	log.Actions = append(log.Actions, action)
}

// Log returns the recorded log for a game.
func (rc *Recorder) Log(gameID string) (*ReplayLog, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	log, ok := rc.logs[gameID]
	return log, ok
}

// Clear drops the recorded log for a game.
func (rc *Recorder) Clear(gameID string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.logs, gameID)
}

// Replay re-runs the recorded game from its setup and returns the final
// canonical snapshot. The caller compares it against the live snapshot to
// detect divergence.
func (log *ReplayLog) Replay(cat *catalog.Catalog, abilities *AbilityEngine) ([]byte, error) {
	setups := make([]PlayerSetup, 0, len(log.Setup.Players))
	for _, player := range log.Setup.Players {
		setup := PlayerSetup{UserID: player.UserID}
		for i := range player.Instances {
			inst := player.Instances[i]
			setup.Instances = append(setup.Instances, &inst)
		}
		setups = append(setups, setup)
	}

	sess, err := NewSession(log.GameID, log.Setup.Mode, setups, log.Setup.HandSize, cat, abilities, nil)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", log.GameID, err)
	}
	if err := sess.Start(); err != nil {
		return nil, fmt.Errorf("replay %s: %w", log.GameID, err)
	}

	for i, action := range log.Actions {
		if err := sess.Apply(action); err != nil {
			return nil, fmt.Errorf("replay %s: action %d: %w", log.GameID, i, err)
		}
	}

	snapshot, _, err := sess.Snapshot()
	return snapshot, err
}

// SaveToFile archives the log as a gzipped gob file named <game-id>.replay.
func (log *ReplayLog) SaveToFile(directory string) error {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("create replay directory: %w", err)
	}

	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", log.GameID))
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create replay file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	defer gz.Close()

	if err := gob.NewEncoder(gz).Encode(log); err != nil {
		return fmt.Errorf("encode replay: %w", err)
	}
	return nil
}

// LoadReplayFromFile loads an archived log.
func LoadReplayFromFile(directory, gameID string) (*ReplayLog, error) {
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", gameID))

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("read replay file: %w", err)
	}
	defer gz.Close()

	var log ReplayLog
	if err := gob.NewDecoder(gz).Decode(&log); err != nil {
		return nil, fmt.Errorf("decode replay: %w", err)
	}
	return &log, nil
}
