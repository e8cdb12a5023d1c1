// Package qr renders product trace codes: the public trace URL, its QR code,
// and a labeled trace-card PNG suitable for printing on packaging.
package qr

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/fogleman/gg"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	qrSize     = 256
	cardWidth  = 320
	cardHeight = 360
)

// TraceURL is the content encoded into a product's QR code; scanning it opens
// the public trace view for the batch.
func TraceURL(frontendURL, batchCode string) string {
	return fmt.Sprintf("%s/trace/%s", frontendURL, batchCode)
}

// PNG renders the QR code for a trace URL.
func PNG(traceURL string) ([]byte, error) {
	raw, err := qrcode.Encode(traceURL, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("qr: encoding %q: %w", traceURL, err)
	}
	return raw, nil
}

// TraceCard composes the QR code with the product name and batch code on a
// white card.
func TraceCard(productName, batchCode, traceURL string) ([]byte, error) {
	code, err := qrcode.New(traceURL, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr: encoding %q: %w", traceURL, err)
	}

	dc := gg.NewContext(cardWidth, cardHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	qrImage := code.Image(qrSize)
	dc.DrawImage(qrImage, (cardWidth-qrSize)/2, 24)

	dc.SetRGB(0, 0, 0)
	dc.DrawStringAnchored(productName, cardWidth/2, float64(qrSize)+48, 0.5, 0.5)
	dc.DrawStringAnchored("Batch "+batchCode, cardWidth/2, float64(qrSize)+72, 0.5, 0.5)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("qr: encoding trace card: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64 is how rendered images are stored on the product record.
func EncodeBase64(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}
