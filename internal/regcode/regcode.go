// Package regcode produces the scannable self-registration code handed to
// customers at the till.
package regcode

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// RegistrationURL builds the customer-facing self-registration URL from the
// service's public base URL.
func RegistrationURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/registration"
}

// PNG encodes the URL as a QR code PNG with the given edge length in pixels.
func PNG(url string, size int) ([]byte, error) {
	return qrcode.Encode(url, qrcode.Medium, size)
}
