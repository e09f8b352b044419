// Package qr renders QR codes for voucher login URLs. It is a pure
// transformation from a URL string to image bytes; it knows nothing about
// vouchers beyond the text it is given.
package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the pixel width/height of rendered QR images.
const DefaultSize = 256

// EncodePNG renders text as a PNG QR code of DefaultSize.
func EncodePNG(text string) ([]byte, error) {
	png, err := qrcode.Encode(text, qrcode.Medium, DefaultSize)
	if err != nil {
		return nil, fmt.Errorf("qr encode error: %w", err)
	}
	return png, nil
}

// EncodeDataURI renders text as a PNG QR code embedded in a data URI,
// suitable for direct use in an <img src=...> attribute.
func EncodeDataURI(text string) (string, error) {
	png, err := EncodePNG(text)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
