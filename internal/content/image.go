package content

import (
	"bytes"
	"fmt"
	"image"

	// Codecs registered for image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// imageSource wraps a single decoded image as a one-page source.
type imageSource struct {
	img image.Image
}

func newImageSource(data []byte) (Source, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return &imageSource{img: img}, nil
}

func (s *imageSource) PageCount() int { return 1 }

func (s *imageSource) RenderPage(page int) (image.Image, error) {
	if page != 1 {
		return nil, fmt.Errorf("image source has no page %d", page)
	}
	return s.img, nil
}

func (s *imageSource) Close() error { return nil }
