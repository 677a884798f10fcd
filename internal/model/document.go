package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidDocument is returned when a map document blob is not UTF-8
// JSON of the expected shape.
var ErrInvalidDocument = errors.New("invalid map document")

// Document is a decoded seat-map document.  Skipped counts scene objects
// that could not be decoded and were left out of Objects.
type Document struct {
	Objects []SceneObject
	Tiers   []Tier
	Skipped int
}

type rawDocument struct {
	CanvasObjects []json.RawMessage `json:"canvasObjects"`
	TierData      []json.RawMessage `json:"tierData"`
}

// DecodeDocument decodes the opaque map blob.  A malformed object or tier
// is skipped rather than failing the whole map, so that a partially
// broken document still renders.
func DecodeDocument(blob []byte) (Document, error) {
	if !utf8.Valid(blob) {
		return Document{}, fmt.Errorf("%w: not valid UTF-8", ErrInvalidDocument)
	}
	var raw rawDocument
	if err := json.Unmarshal(blob, &raw); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	doc := Document{
		Objects: make([]SceneObject, 0, len(raw.CanvasObjects)),
		Tiers:   make([]Tier, 0, len(raw.TierData)),
	}
	seen := make(map[string]bool, len(raw.CanvasObjects))
	for _, r := range raw.CanvasObjects {
		var o SceneObject
		if err := json.Unmarshal(r, &o); err != nil || o.ID == "" || seen[o.ID] {
			doc.Skipped++
			continue
		}
		seen[o.ID] = true
		doc.Objects = append(doc.Objects, o)
	}
	for _, r := range raw.TierData {
		var t Tier
		if err := json.Unmarshal(r, &t); err != nil {
			doc.Skipped++
			continue
		}
		doc.Tiers = append(doc.Tiers, t)
	}
	return doc, nil
}
