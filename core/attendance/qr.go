package attendance

import (
	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256 // px

// QRCodePNG renders the session's scan URL as a PNG QR code.
func (svc *Service) QRCodePNG(s Session) ([]byte, error) {
	return qrcode.Encode(svc.ScanURL(s), qrcode.Medium, qrSize)
}
