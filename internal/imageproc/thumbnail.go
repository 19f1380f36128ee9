package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// Thumbnailer - квадратное превью size x size с обрезкой по центру, в том же формате что и исходник
func Thumbnailer(r io.Reader, size int) (io.Reader, int64, error) {
	if r == nil {
		return nil, -1, errors.New("nil-reader provided to Thumbnailer")
	}
	if size <= 0 {
		return nil, -1, fmt.Errorf("incorrect thumbnail size %d", size)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, -1, fmt.Errorf("failed to read source image in Thumbnailer: %w", err)
	}

	format, _, err := DetectFormat(data)
	if err != nil {
		return nil, -1, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, -1, fmt.Errorf("failed to decode source image in Thumbnailer: %w", err)
	}
	thumb := imaging.Thumbnail(img, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, format); err != nil {
		return nil, -1, fmt.Errorf("failed to encode thumbnail in Thumbnailer: %w", err)
	}
	return &buf, int64(buf.Len()), nil
}
