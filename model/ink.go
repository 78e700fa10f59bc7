package model

// InkPoint is one sampled point of a stroke.
type InkPoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"pressure,omitempty"`
}

// Stroke is a freehand ink stroke. Strokes carry no styling and are only
// ever inserted or deleted whole.
type Stroke struct {
	StrokeID string     `json:"id"`
	Points   []InkPoint `json:"points"`
}

// ID returns the stroke id.
func (s Stroke) ID() string { return s.StrokeID }

// Clone returns a copy that shares no point storage with s.
func (s Stroke) Clone() Stroke {
	if s.Points != nil {
		s.Points = append([]InkPoint(nil), s.Points...)
	}
	return s
}
