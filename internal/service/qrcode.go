package service

import (
	"strings"

	"github.com/skip2/go-qrcode"
)

type DefaultQRGenerator struct {
	BaseURL string
}

// Generate encodes the absolute URL of the item's view page.
func (g DefaultQRGenerator) Generate(itemID string) ([]byte, error) {
	qrData := strings.TrimRight(g.BaseURL, "/") + "/menu/" + itemID
	return qrcode.Encode(qrData, qrcode.Medium, 256)
}
