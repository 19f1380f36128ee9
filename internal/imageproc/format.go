// Package imageproc sniffs image formats and renders thumbnails.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/disintegration/imaging"
)

var contentTypes = map[imaging.Format]string{
	imaging.JPEG: model.JPEG,
	imaging.PNG:  model.PNG,
}

// DetectFormat читает только заголовок картинки и возвращает формат и content-type
func DetectFormat(data []byte) (imaging.Format, string, error) {
	if len(data) == 0 {
		return -1, "", errors.New("empty image data")
	}

	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return -1, "", fmt.Errorf("decode image header: %w", err)
	}

	format, err := imaging.FormatFromExtension(name)
	if err != nil {
		return -1, "", err
	}

	cType, ok := contentTypes[format]
	if !ok {
		return -1, "", fmt.Errorf("unsupported format %q", name)
	}

	return format, cType, nil
}
