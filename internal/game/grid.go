package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/rand/v2"
	"sort"
)

const (
	MinGridSize = 2
	MaxGridSize = 9 // largest board the client renders
)

var ErrInvalidGrid = errors.New("invalid grid parameters")

// Grid is one generated mine layout
type Grid struct {
	Size  int
	Mines []int  // sorted ascending
	Cells []bool // len Size*Size, true at mine indices
}

// ValidateGrid checks grid size and mine count bounds
func ValidateGrid(size, mines int) error {
	if size < MinGridSize || size > MaxGridSize {
		return ErrInvalidGrid
	}
	if mines < 1 || mines >= size*size {
		return ErrInvalidGrid
	}
	return nil
}

// NewSeededRand returns a PCG source seeded from crypto/rand
func NewSeededRand() *rand.Rand {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:])))
}

// GenerateGrid draws mines distinct cells uniformly without replacement
func GenerateGrid(rng *rand.Rand, size, mines int) (*Grid, error) {
	if err := ValidateGrid(size, mines); err != nil {
		return nil, err
	}

	total := size * size
	cells := make([]int, total)
	for i := range cells {
		cells[i] = i
	}

	// partial Fisher-Yates: the first `mines` slots end up as the sample
	for i := 0; i < mines; i++ {
		j := i + rng.IntN(total-i)
		cells[i], cells[j] = cells[j], cells[i]
	}

	placement := append([]int(nil), cells[:mines]...)
	sort.Ints(placement)

	g := &Grid{
		Size:  size,
		Mines: placement,
		Cells: make([]bool, total),
	}
	for _, idx := range placement {
		g.Cells[idx] = true
	}
	return g, nil
}

// IsMine reports whether idx holds a mine; out of range is never a mine
func (g *Grid) IsMine(idx int) bool {
	if idx < 0 || idx >= len(g.Cells) {
		return false
	}
	return g.Cells[idx]
}

// CellsFromPlacement rebuilds the boolean grid for a stored placement
func CellsFromPlacement(size int, placement []int) []bool {
	cells := make([]bool, size*size)
	for _, idx := range placement {
		if idx >= 0 && idx < len(cells) {
			cells[idx] = true
		}
	}
	return cells
}
