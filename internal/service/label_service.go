package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/fixlab/repair-service/internal/config"
)

// LabelPayload is the printable label for a physical ticket: a read-only
// projection, never part of the state logic.
type LabelPayload struct {
	TrackingCode string    `json:"tracking_code"`
	CustomerName string    `json:"customer_name"`
	Device       string    `json:"device"`
	ReceivedAt   time.Time `json:"received_at"`
	TrackingURL  string    `json:"tracking_url"`
	QRCodePNG    []byte    `json:"qr_code_png"`
}

// LabelService renders printable labels with a QR code pointing at the
// public tracking page.
type LabelService struct {
	lifecycle *LifecycleService
	shop      config.ShopConfig
}

// NewLabelService constructs the renderer.
func NewLabelService(lifecycle *LifecycleService, shop config.ShopConfig) *LabelService {
	return &LabelService{lifecycle: lifecycle, shop: shop}
}

// RenderLabel builds the label payload for a ticket.
func (s *LabelService) RenderLabel(ctx context.Context, ticketID string) (*LabelPayload, error) {
	ticket, err := s.lifecycle.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	trackingURL := fmt.Sprintf("%s/public/track/%s",
		strings.TrimRight(s.shop.PublicBaseURL, "/"), ticket.TrackingCode)
	png, err := qrcode.Encode(trackingURL, qrcode.Medium, 256)
	if err != nil {
		return nil, err
	}

	device := strings.TrimSpace(ticket.DeviceBrand + " " + ticket.DeviceModel)
	return &LabelPayload{
		TrackingCode: ticket.TrackingCode,
		CustomerName: ticket.CustomerName,
		Device:       device,
		ReceivedAt:   ticket.CreatedAt,
		TrackingURL:  trackingURL,
		QRCodePNG:    png,
	}, nil
}
