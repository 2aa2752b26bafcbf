package freqdist

import (
	"fmt"
	"strings"
)

// Shape selects the curve used to place stage frequencies. Exactly one shape
// is active at a time.
type Shape int

const (
	// Linear spaces stages evenly in Hz.
	Linear Shape = iota
	// Mel spaces stages evenly on the perceptual mel scale.
	Mel
	// Exponential uses min + factor^i with factor = (max-min)^(1/count).
	Exponential
	// Geometric spaces stages evenly in log frequency between min and max.
	Geometric
)

var shapeNames = [...]string{
	Linear:      "linear",
	Mel:         "mel",
	Exponential: "exponential",
	Geometric:   "geometric",
}

// Shapes lists every supported shape in declaration order.
func Shapes() []Shape {
	return []Shape{Linear, Mel, Exponential, Geometric}
}

// Valid reports whether s is a known shape.
func (s Shape) Valid() bool {
	return s >= Linear && s <= Geometric
}

func (s Shape) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Shape(%d)", int(s))
	}

	return shapeNames[s]
}

// ParseShape resolves a shape name (case-insensitive). "log" is accepted as
// an alias for geometric.
func ParseShape(name string) (Shape, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, n := range shapeNames {
		if n == key {
			return Shape(i), nil
		}
	}

	if key == "log" {
		return Geometric, nil
	}

	return 0, fmt.Errorf("freqdist: unknown shape %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Shape) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("freqdist: invalid shape %d", int(s))
	}

	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Shape) UnmarshalText(text []byte) error {
	parsed, err := ParseShape(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}
