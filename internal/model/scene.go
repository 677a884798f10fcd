package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ObjectType tags which Properties variant a SceneObject carries.
type ObjectType string

const (
	TypeSeats  ObjectType = "seats"
	TypeTable  ObjectType = "table"
	TypeObject ObjectType = "object"
	TypeText   ObjectType = "text"
)

// ErrUnknownObjectType is returned when a scene object's "type" does not
// match any known variant.
var ErrUnknownObjectType = errors.New("unknown scene object type")

// ErrObjectTooLarge is returned for a section or table with more seats than
// a viewer lays out.
var ErrObjectTooLarge = errors.New("scene object too large")

// Seat limits of a single object.
const (
	MaxRows        = 200
	MaxSeatsPerRow = 200
	MaxTableSeats  = 100
)

// Point is a 2D coordinate.  Depending on context it is in world, local
// or screen space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale returns p*k.
func (p Point) Scale(k float64) Point { return Point{X: p.X * k, Y: p.Y * k} }

// SceneObject is a renderable unit of a seat map.  Properties holds the
// variant payload selected by Type; the two always agree after decoding.
type SceneObject struct {
	ID         string
	Type       ObjectType
	Position   Point
	Rotation   float64 // degrees
	Properties Properties
}

// Properties is the closed set of per-type payloads.  Only the types in
// this package implement it.
type Properties interface {
	objectType() ObjectType
}

// SeatsProps describes a seat section: a grid of rows × seats.
type SeatsProps struct {
	SectionName string
	Rows        int
	Seats       int
}

// TableStyle is the outline of a table.
type TableStyle string

const (
	TableSquare TableStyle = "square"
	TableCircle TableStyle = "circle"
)

// TableProps describes a table with seats around it.  Zero values for
// the optional dimensions mean "use the default".
type TableProps struct {
	TableName string
	Style     TableStyle
	Seats     int
	Width     float64
	Height    float64
	EndSeats  int
	Radius    float64
}

// ShapeKind is the outline of a custom object.
type ShapeKind string

const (
	ShapeLine   ShapeKind = "line"
	ShapeSquare ShapeKind = "square"
	ShapeCircle ShapeKind = "circle"
)

// ShapeProps describes a custom venue object such as a stage or a bar.
type ShapeProps struct {
	ObjectName string
	Shape      ShapeKind
	Label      string
	Icon       string
}

// TextProps is a free text label.
type TextProps struct {
	Text string
	Size float64
}

func (SeatsProps) objectType() ObjectType { return TypeSeats }
func (TableProps) objectType() ObjectType { return TypeTable }
func (ShapeProps) objectType() ObjectType { return TypeObject }
func (TextProps) objectType() ObjectType  { return TypeText }

// SectionID returns the identifier used as the prefix of every seat
// derived from this section.  It is the section name when one is set and
// the object id otherwise.
func (o SceneObject) SectionID() string {
	if p, ok := o.Properties.(SeatsProps); ok && p.SectionName != "" {
		return p.SectionName
	}
	return o.ID
}

// wire shapes of a scene object as it appears in map documents
type rawObject struct {
	ID         FlexString      `json:"id"`
	Type       ObjectType      `json:"type"`
	Position   Point           `json:"position"`
	Rotation   FlexFloat       `json:"rotation"`
	Properties json.RawMessage `json:"properties"`
}

type rawSeats struct {
	SectionName string  `json:"sectionName"`
	Rows        FlexInt `json:"rows"`
	Seats       FlexInt `json:"seats"`
}

type rawTable struct {
	TableName string    `json:"tableName"`
	Style     string    `json:"style"`
	Seats     FlexInt   `json:"seats"`
	Width     FlexFloat `json:"width"`
	Height    FlexFloat `json:"height"`
	EndSeats  FlexInt   `json:"endSeats"`
	Radius    FlexFloat `json:"radius"`
}

type rawShape struct {
	ObjectName string `json:"objectName"`
	Shape      string `json:"shape"`
	Label      string `json:"label"`
	Icon       string `json:"icon"`
}

type rawText struct {
	Text string    `json:"text"`
	Size FlexFloat `json:"size"`
}

// UnmarshalJSON decodes a scene object and its type-specific properties.
func (o *SceneObject) UnmarshalJSON(data []byte) error {
	var raw rawObject
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	props := raw.Properties
	if len(props) == 0 || string(props) == "null" {
		props = []byte("{}")
	}

	var p Properties
	switch raw.Type {
	case TypeSeats:
		var s rawSeats
		if err := json.Unmarshal(props, &s); err != nil {
			return fmt.Errorf("seats %q: %w", raw.ID, err)
		}
		if s.Rows > MaxRows || s.Seats > MaxSeatsPerRow {
			return fmt.Errorf("seats %q: %w: %d rows of %d", raw.ID, ErrObjectTooLarge, s.Rows, s.Seats)
		}
		p = SeatsProps{SectionName: s.SectionName, Rows: max(int(s.Rows), 0), Seats: max(int(s.Seats), 0)}
	case TypeTable:
		var t rawTable
		if err := json.Unmarshal(props, &t); err != nil {
			return fmt.Errorf("table %q: %w", raw.ID, err)
		}
		if t.Seats > MaxTableSeats || t.EndSeats > MaxTableSeats {
			return fmt.Errorf("table %q: %w: %d seats", raw.ID, ErrObjectTooLarge, t.Seats+t.EndSeats)
		}
		style := TableStyle(t.Style)
		if style != TableCircle {
			style = TableSquare
		}
		p = TableProps{
			TableName: t.TableName,
			Style:     style,
			Seats:     max(int(t.Seats), 0),
			Width:     float64(t.Width),
			Height:    float64(t.Height),
			EndSeats:  max(int(t.EndSeats), 0),
			Radius:    float64(t.Radius),
		}
	case TypeObject:
		var s rawShape
		if err := json.Unmarshal(props, &s); err != nil {
			return fmt.Errorf("object %q: %w", raw.ID, err)
		}
		shape := ShapeKind(s.Shape)
		switch shape {
		case ShapeLine, ShapeSquare, ShapeCircle:
		default:
			shape = ShapeSquare
		}
		p = ShapeProps{ObjectName: s.ObjectName, Shape: shape, Label: s.Label, Icon: s.Icon}
	case TypeText:
		var t rawText
		if err := json.Unmarshal(props, &t); err != nil {
			return fmt.Errorf("text %q: %w", raw.ID, err)
		}
		size := float64(t.Size)
		if size <= 0 {
			size = 4
		}
		p = TextProps{Text: t.Text, Size: size}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownObjectType, raw.Type)
	}

	*o = SceneObject{
		ID:         string(raw.ID),
		Type:       raw.Type,
		Position:   raw.Position,
		Rotation:   float64(raw.Rotation),
		Properties: p,
	}
	return nil
}
