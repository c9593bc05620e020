// Package card renders the digital asthma card handed to patients, a QR code linking to their
// read-only patient view.
package card

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/asthma-connect/clinic/errors"
	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/summary"
)

const (
	QRSize     = 256
	ViewPrefix = "view"
)

var ErrMissingToken = fmt.Errorf("%w: patient has no view token", errors.BadRequest)

type Card struct {
	HN                string  `json:"hn"`
	FullName          string  `json:"fullName"`
	Link              string  `json:"link"`
	Age               int     `json:"age"`
	Height            float64 `json:"height"`
	PredictedBaseline float64 `json:"predictedBaseline"`
	Reference         float64 `json:"reference"`
}

// Link returns the patient view url of a view token
func Link(baseURL string, token string) string {
	return strings.TrimRight(baseURL, "/") + "/" + ViewPrefix + "/" + url.PathEscape(token)
}

// QR encodes a link as a PNG image
func QR(link string) ([]byte, error) {
	png, err := qrcode.Encode(link, qrcode.Medium, QRSize)
	if err != nil {
		return nil, fmt.Errorf("unable to encode qr code: %w", err)
	}
	return png, nil
}

func New(baseURL string, patient patients.Patient, s summary.Summary) (*Card, error) {
	if patient.ViewToken == "" {
		return nil, ErrMissingToken
	}
	return &Card{
		HN:                patient.HN,
		FullName:          patient.FullName(),
		Link:              Link(baseURL, patient.ViewToken),
		Age:               s.Age,
		Height:            s.Height,
		PredictedBaseline: s.PredictedBaseline,
		Reference:         s.Reference,
	}, nil
}
