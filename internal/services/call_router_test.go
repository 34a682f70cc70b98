package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"phone_ordering_backend/internal/config"
	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/pkg/utils"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-15 is a Monday.
func mondayAt(hour, minute int) time.Time {
	return time.Date(2024, 1, 15, hour, minute, 0, 0, time.UTC)
}

func TestIsBusy(t *testing.T) {
	weekdayLunch := models.BusyHours{
		{Day: "monday", Start: "11:30", End: "14:00", Enabled: true},
		{Day: "tuesday", Start: "11:30", End: "14:00", Enabled: false},
	}
	tests := []struct {
		name   string
		tenant models.Tenant
		now    time.Time
		want   bool
	}{
		{"manual override", models.Tenant{BusyModeEnabled: true}, mondayAt(3, 0), true},
		{"no schedule", models.Tenant{}, mondayAt(12, 0), false},
		{"inside window", models.Tenant{BusyHours: weekdayLunch}, mondayAt(12, 15), true},
		{"window start inclusive", models.Tenant{BusyHours: weekdayLunch}, mondayAt(11, 30), true},
		{"window end inclusive", models.Tenant{BusyHours: weekdayLunch}, mondayAt(14, 0), true},
		{"after window", models.Tenant{BusyHours: weekdayLunch}, mondayAt(14, 1), false},
		{"disabled day", models.Tenant{BusyHours: weekdayLunch}, mondayAt(12, 0).Add(24 * time.Hour), false},
		{"day without entry", models.Tenant{BusyHours: weekdayLunch}, mondayAt(12, 0).Add(48 * time.Hour), false},
		// 10:45 UTC is 11:45 in Paris during winter.
		{"restaurant timezone", models.Tenant{BusyHours: weekdayLunch, Timezone: "Europe/Paris"}, mondayAt(10, 45), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenant := tt.tenant
			assert.Equal(t, tt.want, IsBusy(&tenant, tt.now, time.UTC))
		})
	}
}

func TestDecide(t *testing.T) {
	busy := &models.Tenant{BusyModeEnabled: true}
	assert.Equal(t, models.RouteAI, Decide(busy, mondayAt(12, 0), time.UTC))

	quiet := &models.Tenant{}
	assert.Equal(t, models.RouteStaff, Decide(quiet, mondayAt(12, 0), time.UTC))

	aiOff := &models.Tenant{BusyModeEnabled: true, AIEnabled: utils.BoolPtr(false)}
	assert.Equal(t, models.RouteStaff, Decide(aiOff, mondayAt(12, 0), time.UTC))
}

func newTestRouter(h *harness) *callRouter {
	voice := config.Default().Voice
	voice.AssistantID = "asst_1"
	r := NewCallRouter(h.tenants, voice, "https://api.example.com/", time.UTC).(*callRouter)
	r.now = func() time.Time { return mondayAt(12, 0) }
	return r
}

func TestRouteInboundCall(t *testing.T) {
	h := newHarness()
	router := newTestRouter(h)
	busy := h.store.addTenant(models.Tenant{Name: "Busy", VoiceLineID: strPtr("line-busy"), BusyModeEnabled: true, StaffPhone: strPtr("+441")})
	quiet := h.store.addTenant(models.Tenant{Name: "Quiet", VoiceLineID: strPtr("line-quiet"), StaffPhone: strPtr("+442")})
	h.store.addTenant(models.Tenant{Name: "No staff", VoiceLineID: strPtr("line-nostaff")})
	nobody := h.store.addTenant(models.Tenant{Name: "Nobody", VoiceLineID: strPtr("line-nobody"), AIEnabled: utils.BoolPtr(false)})
	ctx := context.Background()

	d, err := router.RouteInboundCall(ctx, models.CallEvent{DestinationLine: "line-busy", CallID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, models.ActionRouteToAI, d.Action)
	assert.Equal(t, busy.ID, d.TenantID)
	assert.Equal(t, "asst_1", d.AssistantID)
	assert.NotEmpty(t, d.Say)
	assert.Equal(t, "c1", d.CallID)

	d, err = router.RouteInboundCall(ctx, models.CallEvent{DestinationLine: "line-quiet"})
	require.NoError(t, err)
	assert.Equal(t, models.ActionDialStaff, d.Action)
	assert.Equal(t, quiet.ID, d.TenantID)
	assert.Equal(t, "+442", d.DialNumber)
	assert.Equal(t, 20, d.TimeoutSeconds)
	assert.Equal(t, "https://api.example.com/api/v1/voice/calls/no-answer", d.FallbackURL)

	d, err = router.RouteInboundCall(ctx, models.CallEvent{DestinationLine: "line-nostaff"})
	require.NoError(t, err)
	assert.Equal(t, models.ActionRouteToAI, d.Action)

	logs := captureLogs(t)
	d, err = router.RouteInboundCall(ctx, models.CallEvent{DestinationLine: "line-nobody"})
	require.NoError(t, err)
	assert.Equal(t, models.ActionSayNotConfigured, d.Action)
	assert.Equal(t, nobody.ID, d.TenantID)
	assert.Contains(t, logs.String(), "No staff phone configured and AI disabled")
	assert.NotContains(t, logs.String(), "unknown voice line")
	logs.Reset()

	d, err = router.RouteInboundCall(ctx, models.CallEvent{DestinationLine: "unknown"})
	require.NoError(t, err)
	assert.Equal(t, models.ActionSayNotConfigured, d.Action)
	assert.Empty(t, d.TenantID)
	assert.Equal(t, config.Default().Voice.NotConfigured, d.Say)
	assert.Contains(t, logs.String(), "Call on unknown voice line")
}

// captureLogs points the global logger at a buffer for the rest of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })
	return &buf
}

func TestRouteNoAnswer(t *testing.T) {
	h := newHarness()
	router := newTestRouter(h)
	quiet := h.store.addTenant(models.Tenant{Name: "Quiet", VoiceLineID: strPtr("line-quiet"), StaffPhone: strPtr("+442")})

	d, err := router.RouteNoAnswer(context.Background(), models.CallEvent{DestinationLine: "line-quiet"})
	require.NoError(t, err)
	assert.Equal(t, models.ActionRouteToAI, d.Action)
	assert.Equal(t, quiet.ID, d.TenantID)

	d, err = router.RouteNoAnswer(context.Background(), models.CallEvent{DestinationLine: "other"})
	require.NoError(t, err)
	assert.Equal(t, models.ActionSayNotConfigured, d.Action)
}
