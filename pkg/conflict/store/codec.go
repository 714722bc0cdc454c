package store

import (
	"encoding/json"

	"github.com/offlinefoundation/core/pkg/conflict"
)

func encodeRecord(r *conflict.ConflictRecord) ([]byte, error) {
	return json.Marshal(r)
}

func decodeRecord(data []byte) (*conflict.ConflictRecord, error) {
	var r conflict.ConflictRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
