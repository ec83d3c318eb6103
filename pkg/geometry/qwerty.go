package geometry

// Letter rows of a mobile QWERTY keyboard with the usual row stagger,
// measured in key widths.
var (
	letterRows = [][]rune{
		{'q', 'w', 'e', 'r', 't', 'y', 'u', 'i', 'o', 'p'},
		{'a', 's', 'd', 'f', 'g', 'h', 'j', 'k', 'l'},
		{'z', 'x', 'c', 'v', 'b', 'n', 'm'},
	}
	rowOffsets = []float64{0, 0.5, 1.5}
)

// Nominal pixel size of the builtin keyboard, only relevant when
// synthesizing raw traces against it.
const (
	qwertyPixelW = 360
	qwertyPixelH = 240
)

// QWERTY builds the builtin three-row QWERTY layout. Each call returns a
// fresh snapshot with its own version.
func QWERTY() *Layout {
	const cols = 10.0
	keyW := 1.0 / cols
	rowH := 1.0 / float64(len(letterRows))

	var keys []Key
	for row, runes := range letterRows {
		y := (float64(row) + 0.5) * rowH
		for col, c := range runes {
			x := (rowOffsets[row] + float64(col) + 0.5) * keyW
			keys = append(keys, Key{
				Char:   c,
				Center: Point{X: x, Y: y},
				W:      keyW,
				H:      rowH,
			})
		}
	}
	return NewLayout("qwerty", keys, Bounds{X: 0, Y: 0, W: qwertyPixelW, H: qwertyPixelH})
}
