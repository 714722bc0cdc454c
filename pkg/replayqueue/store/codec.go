package store

import (
	"encoding/json"

	"github.com/offlinefoundation/core/pkg/replayqueue"
)

func encodeOperation(op *replayqueue.Operation) ([]byte, error) {
	return json.Marshal(op)
}

func decodeOperation(data []byte) (*replayqueue.Operation, error) {
	var op replayqueue.Operation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, err
	}
	return &op, nil
}
