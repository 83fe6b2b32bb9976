package game

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateGrid_AllSizes(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for size := MinGridSize; size <= MaxGridSize; size++ {
		for mines := 1; mines < size*size; mines++ {
			g, err := GenerateGrid(rng, size, mines)
			require.NoError(t, err)
			require.Len(t, g.Mines, mines)
			require.Len(t, g.Cells, size*size)

			seen := make(map[int]bool)
			for i, idx := range g.Mines {
				require.GreaterOrEqual(t, idx, 0)
				require.Less(t, idx, size*size)
				require.False(t, seen[idx], "duplicate mine %d", idx)
				seen[idx] = true
				if i > 0 {
					require.Greater(t, idx, g.Mines[i-1], "placement must be sorted")
				}
			}

			count := 0
			for idx, isMine := range g.Cells {
				if isMine {
					count++
					assert.True(t, seen[idx])
				}
			}
			require.Equal(t, mines, count)
		}
	}
}

func TestGenerateGrid_FiveByFiveThreeMines(t *testing.T) {
	g, err := GenerateGrid(NewSeededRand(), 5, 3)
	require.NoError(t, err)
	require.Len(t, g.Mines, 3)
	for _, idx := range g.Mines {
		assert.True(t, idx >= 0 && idx <= 24)
		assert.True(t, g.IsMine(idx))
	}
}

func TestGenerateGrid_SameSeedSameLayout(t *testing.T) {
	a, err := GenerateGrid(rand.New(rand.NewPCG(42, 7)), 5, 4)
	require.NoError(t, err)
	b, err := GenerateGrid(rand.New(rand.NewPCG(42, 7)), 5, 4)
	require.NoError(t, err)
	assert.Equal(t, a.Mines, b.Mines)
}

func TestGenerateGrid_Invalid(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	cases := []struct {
		name        string
		size, mines int
	}{
		{"zero mines", 5, 0},
		{"all mines", 5, 25},
		{"negative mines", 5, -1},
		{"grid too small", 1, 0},
		{"grid too large", MaxGridSize + 1, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GenerateGrid(rng, tc.size, tc.mines)
			assert.ErrorIs(t, err, ErrInvalidGrid)
		})
	}
}

func TestGrid_IsMineOutOfRange(t *testing.T) {
	g, err := GenerateGrid(rand.New(rand.NewPCG(3, 3)), 3, 8)
	require.NoError(t, err)
	assert.False(t, g.IsMine(-1))
	assert.False(t, g.IsMine(9))
}

func TestCellsFromPlacement(t *testing.T) {
	cells := CellsFromPlacement(3, []int{0, 4, 8})
	assert.Equal(t, []bool{true, false, false, false, true, false, false, false, true}, cells)
}
