package store

import (
	"encoding/json"

	"github.com/offlinefoundation/core/pkg/cachemgr"
)

func encodeEntry(e *cachemgr.Entry) ([]byte, error) {
	return json.Marshal(e)
}

func decodeEntry(data []byte) (*cachemgr.Entry, error) {
	var e cachemgr.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
