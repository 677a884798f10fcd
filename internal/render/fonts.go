package render

import (
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

const minFontSize = 4.0

var (
	parseOnce  sync.Once
	sharedFont *truetype.Font
)

// labelFont parses the embedded Go Regular face once per process.  The
// parsed font is immutable; faces built from it are not and stay per
// Renderer.
func labelFont() *truetype.Font {
	parseOnce.Do(func() {
		f, err := truetype.Parse(goregular.TTF)
		if err == nil {
			sharedFont = f
		}
	})
	return sharedFont
}

type faceCache struct {
	faces map[int]font.Face
}

// face returns a face for size rounded to the nearest half point.
func (c *faceCache) face(size float64) font.Face {
	size = math.Max(size, minFontSize)
	key := int(math.Round(size * 2))
	if f, ok := c.faces[key]; ok {
		return f
	}
	ttf := labelFont()
	if ttf == nil {
		return basicfont.Face7x13
	}
	if c.faces == nil {
		c.faces = make(map[int]font.Face)
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: float64(key) / 2, Hinting: font.HintingNone})
	c.faces[key] = f
	return f
}
