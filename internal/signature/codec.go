package signature

import (
	"encoding/json"
	"fmt"
)

// PositionsVersion is the on-disk schema version for persisted signature
// positions.
const PositionsVersion = 1

// positionsFile is the versioned envelope for a persisted position list.
type positionsFile struct {
	Version   int        `json:"v"`
	Positions []Position `json:"positions"`
}

// EncodePositions serializes a position list with its schema version.
func EncodePositions(positions []Position) ([]byte, error) {
	return json.MarshalIndent(positionsFile{Version: PositionsVersion, Positions: positions}, "", "  ")
}

// DecodePositions parses and version-checks a persisted position list.
func DecodePositions(data []byte) ([]Position, error) {
	var file positionsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode signature positions: %w", err)
	}
	if file.Version != PositionsVersion {
		return nil, fmt.Errorf("unsupported positions version %d (supported: %d)", file.Version, PositionsVersion)
	}
	return file.Positions, nil
}
