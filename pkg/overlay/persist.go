package overlay

import (
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/offlinefoundation/core/pkg/metrics"
	"github.com/offlinefoundation/core/pkg/offlineerrors"
)

// DocumentSchemaVersion is the current persisted document version. Bumped
// whenever fields are added to persistedPopup; overlayPosition was added
// at version 2 while canvasPosition (its predecessor name) is still
// written for backward compatibility, and either is accepted on load.
const DocumentSchemaVersion = 2

// Document is the persisted layout for one authScope.
type Document struct {
	SchemaVersion int              `json:"schemaVersion"`
	Popups        []PopupDescriptor `json:"popups"`
	Revision      int64            `json:"revision"`
}

// persistedPopup is the on-disk shape of one popup. It carries both the
// current overlayPosition field and the legacy canvasPosition alias so a
// document written by an older or newer build round-trips either way.
type persistedPopup struct {
	ID              string   `json:"id"`
	ParentID        string   `json:"parentId,omitempty"`
	FolderID        string   `json:"folderId,omitempty"`
	Level           int      `json:"level"`
	Height          *float64 `json:"height,omitempty"`
	ScreenPosition  Point    `json:"screenPosition"`
	WorldPosition   *Point   `json:"worldPosition,omitempty"`
	OverlayPosition *Point   `json:"overlayPosition,omitempty"`
	CanvasPosition  *Point   `json:"canvasPosition,omitempty"`
}

// Store persists overlay layout documents, one per authScope.
type Store interface {
	Save(authScope string, doc Document) error
	Load(authScope string) (Document, bool, error)
}

func documentKey(authScope string) []byte {
	return []byte(fmt.Sprintf("overlay:%s", authScope))
}

// BadgerStore is the production Store, backed by a badger/v4 instance and
// addressed through its own "overlay:" key prefix.
type BadgerStore struct {
	db      *badger.DB
	metrics metrics.OverlayMetrics
}

// OpenWithDB wraps an already-open badger database. m may be nil, in which
// case metric collection is skipped.
func OpenWithDB(db *badger.DB, m metrics.OverlayMetrics) *BadgerStore {
	return &BadgerStore{db: db, metrics: m}
}

// Save serialises doc, writing both the current and legacy position
// fields for every popup.
func (s *BadgerStore) Save(authScope string, doc Document) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to encode overlay document", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(documentKey(authScope), data)
	})
	if err != nil {
		return offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to persist overlay document", err)
	}
	if s.metrics != nil {
		s.metrics.SetRevision(authScope, doc.Revision)
	}
	return nil
}

// Load reads and decodes a document, backfilling any popup's missing
// worldPosition from its screenPosition.
func (s *BadgerStore) Load(authScope string) (Document, bool, error) {
	var doc Document
	var found bool

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(documentKey(authScope))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			decoded, err := decodeDocument(val)
			if err != nil {
				return err
			}
			doc = decoded
			return nil
		})
	})
	if err != nil {
		return Document{}, false, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to read overlay document", err)
	}
	return doc, found, nil
}

func toPersisted(p PopupDescriptor) persistedPopup {
	world := p.WorldPosition
	return persistedPopup{
		ID:              p.ID,
		ParentID:        p.ParentID,
		FolderID:        p.FolderID,
		Level:           p.Level,
		Height:          p.Height,
		ScreenPosition:  p.ScreenPosition,
		WorldPosition:   &world,
		OverlayPosition: &world,
		CanvasPosition:  &world,
	}
}

func fromPersisted(p persistedPopup) PopupDescriptor {
	world := p.ScreenPosition
	switch {
	case p.OverlayPosition != nil:
		world = *p.OverlayPosition
	case p.WorldPosition != nil:
		world = *p.WorldPosition
	case p.CanvasPosition != nil:
		world = *p.CanvasPosition
	}
	return PopupDescriptor{
		ID:             p.ID,
		ParentID:       p.ParentID,
		FolderID:       p.FolderID,
		Level:          p.Level,
		Height:         p.Height,
		ScreenPosition: p.ScreenPosition,
		WorldPosition:  world,
	}
}

func encodeDocument(doc Document) ([]byte, error) {
	type wire struct {
		SchemaVersion int              `json:"schemaVersion"`
		Popups        []persistedPopup `json:"popups"`
		Revision      int64            `json:"revision"`
	}
	w := wire{SchemaVersion: doc.SchemaVersion, Revision: doc.Revision}
	for _, p := range doc.Popups {
		w.Popups = append(w.Popups, toPersisted(p))
	}
	return json.Marshal(w)
}

func decodeDocument(data []byte) (Document, error) {
	type wire struct {
		SchemaVersion int              `json:"schemaVersion"`
		Popups        []persistedPopup `json:"popups"`
		Revision      int64            `json:"revision"`
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return Document{}, err
	}
	doc := Document{SchemaVersion: w.SchemaVersion, Revision: w.Revision}
	for _, p := range w.Popups {
		doc.Popups = append(doc.Popups, fromPersisted(p))
	}
	return doc, nil
}
