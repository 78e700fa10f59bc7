package ranges

// OffsetModifiedByDeletes moves offset left by the deleted indices that
// precede it.
//
// For text offsets an index equal to offset counts as preceding it, and a
// zero offset never moves. Other offsets (block positions) only count
// indices strictly before offset.
func OffsetModifiedByDeletes(offset int, deleted []int, isText bool) int {
	return offset - countAffecting(offset, deleted, isText)
}

// OffsetModifiedByInserts moves offset right by the inserted indices that
// precede it, with the same boundary rule as OffsetModifiedByDeletes.
func OffsetModifiedByInserts(offset int, inserted []int, isText bool) int {
	return offset + countAffecting(offset, inserted, isText)
}

func countAffecting(offset int, indices []int, isText bool) int {
	n := 0
	for _, i := range indices {
		if isText {
			if offset > 0 && i <= offset {
				n++
			}
		} else if i < offset {
			n++
		}
	}
	return n
}
