package apiclient

import "fmt"

// OverlayPoint mirrors overlay.Point.
type OverlayPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// OverlayPopup mirrors overlay.PopupDescriptor.
type OverlayPopup struct {
	ID             string       `json:"id"`
	ParentID       string       `json:"parentId,omitempty"`
	FolderID       string       `json:"folderId,omitempty"`
	Level          int          `json:"level"`
	Height         *float64     `json:"height,omitempty"`
	ScreenPosition OverlayPoint `json:"screenPosition"`
	WorldPosition  OverlayPoint `json:"worldPosition"`
}

// OverlayDocument mirrors overlay.Document.
type OverlayDocument struct {
	SchemaVersion int            `json:"schemaVersion"`
	Popups        []OverlayPopup `json:"popups"`
	Revision      int64          `json:"revision"`
}

// GetOverlay fetches the persisted popup layout for an authScope.
func (c *Client) GetOverlay(authScope string) (OverlayDocument, error) {
	var doc OverlayDocument
	if err := c.get(fmt.Sprintf("/overlay/%s", pathEscape(authScope)), &doc); err != nil {
		return OverlayDocument{}, err
	}
	return doc, nil
}

// PutOverlay saves the popup layout for an authScope.
func (c *Client) PutOverlay(authScope string, doc OverlayDocument) (OverlayDocument, error) {
	var saved OverlayDocument
	if err := c.put(fmt.Sprintf("/overlay/%s", pathEscape(authScope)), doc, &saved); err != nil {
		return OverlayDocument{}, err
	}
	return saved, nil
}
