// Package hex implements axial hex-grid math for a flat-top layout.
//
// Game logic works purely on axial (q, r) coordinates. The odd-q offset and
// pixel projections exist for renderers and map authoring.
package hex

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coord is an axial hex coordinate. The implicit cube coordinate s is -q-r.
type Coord struct {
	Q int `json:"q" yaml:"q" msgpack:"q"`
	R int `json:"r" yaml:"r" msgpack:"r"`
}

// S returns the implicit third cube coordinate.
func (c Coord) S() int {
	return -c.Q - c.R
}

// Add returns c + o.
func (c Coord) Add(o Coord) Coord {
	return Coord{Q: c.Q + o.Q, R: c.R + o.R}
}

// Sub returns c - o.
func (c Coord) Sub(o Coord) Coord {
	return Coord{Q: c.Q - o.Q, R: c.R - o.R}
}

// Key returns the canonical "q,r" string form.
func (c Coord) Key() string {
	return strconv.Itoa(c.Q) + "," + strconv.Itoa(c.R)
}

// String implements fmt.Stringer.
func (c Coord) String() string {
	return "(" + c.Key() + ")"
}

// ParseKey parses a key produced by Coord.Key.
func ParseKey(s string) (Coord, error) {
	qs, rs, ok := strings.Cut(s, ",")
	if !ok {
		return Coord{}, fmt.Errorf("invalid hex key %q", s)
	}
	q, err := strconv.Atoi(qs)
	if err != nil {
		return Coord{}, fmt.Errorf("invalid hex key %q: %w", s, err)
	}
	r, err := strconv.Atoi(rs)
	if err != nil {
		return Coord{}, fmt.Errorf("invalid hex key %q: %w", s, err)
	}
	return Coord{Q: q, R: r}, nil
}

// Directions holds the six unit vectors in order E, NE, NW, W, SW, SE.
var Directions = [6]Coord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Direction returns the unit vector for a direction index, taken mod 6.
func Direction(dir int) Coord {
	return Directions[mod6(dir)]
}

// Neighbor returns the adjacent hex in the given direction (mod 6).
func Neighbor(c Coord, dir int) Coord {
	return c.Add(Direction(dir))
}

// Neighbors returns the six adjacent hexes.
func Neighbors(c Coord) [6]Coord {
	var out [6]Coord
	for i, d := range Directions {
		out[i] = c.Add(d)
	}
	return out
}

// Distance is the cube-coordinate Chebyshev distance between a and b.
func Distance(a, b Coord) int {
	dq := abs(a.Q - b.Q)
	dr := abs(a.R - b.R)
	ds := abs(a.S() - b.S())
	return max(dq, dr, ds)
}

// InRange returns every hex within distance n of center, center included.
// The result is ordered by q then r.
func InRange(center Coord, n int) []Coord {
	if n < 0 {
		return nil
	}
	out := make([]Coord, 0, 3*n*(n+1)+1)
	for dq := -n; dq <= n; dq++ {
		lo := max(-n, -dq-n)
		hi := min(n, -dq+n)
		for dr := lo; dr <= hi; dr++ {
			out = append(out, Coord{Q: center.Q + dq, R: center.R + dr})
		}
	}
	return out
}

// Rotate turns an offset vector by steps × 60° counter-clockwise around the
// origin, so that Direction(d) becomes Direction(d+steps).
func Rotate(v Coord, steps int) Coord {
	for i := 0; i < mod6(steps); i++ {
		v = Coord{Q: v.Q + v.R, R: -v.Q}
	}
	return v
}

// Offset is an odd-q offset coordinate (columns shoved by odd q).
type Offset struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// ToOffset converts an axial coordinate to odd-q offset.
func ToOffset(c Coord) Offset {
	return Offset{Col: c.Q, Row: c.R + (c.Q-(c.Q&1))/2}
}

// FromOffset converts an odd-q offset coordinate to axial.
func FromOffset(o Offset) Coord {
	return Coord{Q: o.Col, R: o.Row - (o.Col-(o.Col&1))/2}
}

// Point is a pixel position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AxialToPixel projects a hex center for a flat-top layout with the given
// hex size (center to corner).
func AxialToPixel(c Coord, size float64) Point {
	x := size * 1.5 * float64(c.Q)
	y := size * math.Sqrt(3) * (float64(c.R) + float64(c.Q)/2)
	return Point{X: x, Y: y}
}

// PixelToAxial returns the hex containing p.
func PixelToAxial(p Point, size float64) Coord {
	q := (2.0 / 3.0 * p.X) / size
	r := (-1.0/3.0*p.X + math.Sqrt(3)/3.0*p.Y) / size
	return roundCube(q, r, -q-r)
}

// roundCube rounds fractional cube coordinates, fixing the component with the
// largest rounding residual so that q+r+s stays zero.
func roundCube(fq, fr, fs float64) Coord {
	q := math.Round(fq)
	r := math.Round(fr)
	s := math.Round(fs)

	dq := math.Abs(q - fq)
	dr := math.Abs(r - fr)
	ds := math.Abs(s - fs)

	switch {
	case dq > dr && dq > ds:
		q = -r - s
	case dr > ds:
		r = -q - s
	}
	return Coord{Q: int(q), R: int(r)}
}

func mod6(n int) int {
	n %= 6
	if n < 0 {
		n += 6
	}
	return n
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
