package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixlab/repair-service/internal/config"
	apperrors "github.com/fixlab/repair-service/pkg/util"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderLabel(t *testing.T) {
	repo := newMemTicketRepo()
	lifecycle := newTestLifecycle(repo)
	svc := NewLabelService(lifecycle, config.ShopConfig{
		TrackingPrefix: "REP",
		PublicBaseURL:  "https://repairs.example.com/",
	})

	ticket, err := lifecycle.CreateTicket(context.Background(), customerActor(), validIntake())
	require.NoError(t, err)

	label, err := svc.RenderLabel(context.Background(), ticket.ID)
	require.NoError(t, err)

	assert.Equal(t, ticket.TrackingCode, label.TrackingCode)
	assert.Equal(t, "Dana Petrov", label.CustomerName)
	assert.Equal(t, "Asus ZenBook UX425", label.Device)
	assert.Equal(t, "https://repairs.example.com/public/track/"+ticket.TrackingCode, label.TrackingURL)
	assert.True(t, bytes.HasPrefix(label.QRCodePNG, pngMagic))
}

func TestRenderLabel_UnknownTicket(t *testing.T) {
	repo := newMemTicketRepo()
	lifecycle := newTestLifecycle(repo)
	svc := NewLabelService(lifecycle, config.ShopConfig{PublicBaseURL: "http://localhost:3000"})

	_, err := svc.RenderLabel(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}
