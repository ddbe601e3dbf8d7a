package render

import (
	"log"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

// Text annotations render in a fixed bold sans-serif face.
const labelFontSize = 16

var (
	labelFaceOnce sync.Once
	labelFace     font.Face
)

func labelFont() font.Face {
	labelFaceOnce.Do(func() {
		f, err := opentype.Parse(gobold.TTF)
		if err != nil {
			log.Printf("[render] parse label font: %v", err)
			labelFace = basicfont.Face7x13
			return
		}
		face, err := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    labelFontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			log.Printf("[render] build label face: %v", err)
			labelFace = basicfont.Face7x13
			return
		}
		labelFace = face
	})
	return labelFace
}
