package overlays

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vector is one recorded geometry input with its expected rectangle
type Vector struct {
	Name      string   `yaml:"name"`
	Position  Position `yaml:"position"`
	Size      Size     `yaml:"size"`
	Container [2]int   `yaml:"container"`
	Source    [2]int   `yaml:"source"`
	Want      Rect     `yaml:"want"`
}

// Config returns the overlay configuration the vector exercises
func (v Vector) Config() Config {
	return Config{Position: v.Position, Size: v.Size}
}

// Aspect returns the source aspect ratio of the vector
func (v Vector) Aspect() float64 {
	return Aspect(v.Source[0], v.Source[1])
}

// LoadVectors reads a geometry vector file
func LoadVectors(path string) ([]Vector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}

	var vectors []Vector
	if err := yaml.Unmarshal(data, &vectors); err != nil {
		return nil, fmt.Errorf("parse vectors: %w", err)
	}
	return vectors, nil
}

// Mismatch describes a vector whose computed rect differs from the recorded one
type Mismatch struct {
	Vector Vector
	Got    Rect
}

// CheckVectors recomputes every vector and returns the ones that disagree
func CheckVectors(vectors []Vector) []Mismatch {
	var out []Mismatch
	for _, v := range vectors {
		got := OverlayRect(v.Config(), v.Container[0], v.Container[1], v.Aspect())
		if got != v.Want {
			out = append(out, Mismatch{Vector: v, Got: got})
		}
	}
	return out
}
