package source

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ImageSource is a single decoded-on-demand still image.
type ImageSource struct {
	data []byte
}

func NewImageSource(data []byte) (*ImageSource, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	return &ImageSource{data: data}, nil
}

func (s *ImageSource) PageCount() int {
	return 1
}

func (s *ImageSource) PageSize(index int) (float64, float64, error) {
	if index != 0 {
		return 0, 0, fmt.Errorf("page %d out of range", index)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(s.data))
	if err != nil {
		return 0, 0, err
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

func (s *ImageSource) RenderPage(index int, dpi int) (image.Image, error) {
	if index != 0 {
		return nil, fmt.Errorf("page %d out of range", index)
	}
	img, _, err := image.Decode(bytes.NewReader(s.data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func (s *ImageSource) Close() error {
	return nil
}
