package ranges

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffsetModifiedByDeletes(t *testing.T) {
	deleted := []int{2, 5, 9}

	t.Run("text counts the boundary index", func(t *testing.T) {
		assert.Equal(t, 3, OffsetModifiedByDeletes(5, deleted, true))
	})
	t.Run("non-text excludes the boundary index", func(t *testing.T) {
		assert.Equal(t, 4, OffsetModifiedByDeletes(5, deleted, false))
	})
	t.Run("zero text offset never moves", func(t *testing.T) {
		assert.Equal(t, 0, OffsetModifiedByDeletes(0, []int{0}, true))
	})
}

func TestOffsetModifiedByInserts(t *testing.T) {
	inserted := []int{2, 5, 9}
	assert.Equal(t, 7, OffsetModifiedByInserts(5, inserted, true))
	assert.Equal(t, 6, OffsetModifiedByInserts(5, inserted, false))
	assert.Equal(t, 0, OffsetModifiedByInserts(0, []int{0}, true))
}

func TestOffsetShiftLaw(t *testing.T) {
	sets := [][]int{nil, {0}, {1, 2, 3}, {0, 4, 8, 12}, {10, 11, 12, 13, 14}}
	for _, d := range sets {
		for o := 0; o < 20; o++ {
			for _, isText := range []bool{true, false} {
				got := OffsetModifiedByInserts(OffsetModifiedByDeletes(o, d, isText), d, isText)
				assert.GreaterOrEqual(t, got, o-len(d), "offset=%d deleted=%v text=%v", o, d, isText)
			}
		}
	}
}
