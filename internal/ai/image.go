package ai

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"slices"
)

var supportedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Image is an uploaded image ready to be sent to the provider
type Image struct {
	MediaType string
	Data      []byte
}

// NewImage validates raw upload bytes and detects their media type. maxBytes <= 0 disables the size check.
func NewImage(data []byte, maxBytes int64) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrUnsupportedImage)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", ErrImageTooLarge, len(data), maxBytes)
	}
	mediaType := http.DetectContentType(data)
	if !slices.Contains(supportedImageTypes, mediaType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, mediaType)
	}
	return &Image{MediaType: mediaType, Data: data}, nil
}

// Base64 returns the image data encoded for inline transport
func (img Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}
