package game

import (
	"crypto/sha256"
	"encoding/hex"
)

// SnapshotChecksum returns the SHA-256 hex digest of a canonical snapshot.
// Because snapshots serialize with sorted map keys, equal states always hash
// equal, so checksums can guard against divergent replays or a corrupted
// persisted row.
func SnapshotChecksum(snapshot []byte) string {
	sum := sha256.Sum256(snapshot)
	return hex.EncodeToString(sum[:])
}

// Checksum returns the checksum and version of the committed state.
func (s *Session) Checksum() (string, int64, error) {
	snapshot, version, err := s.Snapshot()
	if err != nil {
		return "", 0, err
	}
	return SnapshotChecksum(snapshot), version, nil
}
