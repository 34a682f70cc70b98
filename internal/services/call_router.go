package services

import (
	"context"
	"strings"
	"time"

	"phone_ordering_backend/internal/config"
	"phone_ordering_backend/internal/metrics"
	"phone_ordering_backend/internal/models"
	"phone_ordering_backend/pkg/utils"
)

// NoAnswerPath is where the telephony layer reports an unanswered staff dial.
const NoAnswerPath = "/api/v1/voice/calls/no-answer"

// IsBusy reports whether the restaurant is in busy mode at now.
// The manual override wins; otherwise the weekday entry of the schedule decides, in the restaurant's zone.
// Windows crossing midnight are not supported.
func IsBusy(tenant *models.Tenant, now time.Time, fallback *time.Location) bool {
	if tenant.BusyModeEnabled {
		return true
	}
	if len(tenant.BusyHours) == 0 {
		return false
	}

	local := now.In(tenant.Location(fallback))
	entry, ok := tenant.BusyHours.ForDay(models.Weekdays[local.Weekday()])
	if !ok || !entry.Enabled {
		return false
	}
	current := local.Format("15:04")
	return entry.Start <= current && current <= entry.End
}

// Decide picks AI when AI is allowed and the restaurant is busy, STAFF otherwise.
func Decide(tenant *models.Tenant, now time.Time, fallback *time.Location) models.RoutingDecision {
	if tenant.AIAllowed() && IsBusy(tenant, now, fallback) {
		return models.RouteAI
	}
	return models.RouteStaff
}

// CallRouter turns inbound call events into call-control directives.
type CallRouter interface {
	// RouteInboundCall applies Decide; a STAFF decision for a restaurant without a staff phone goes to
	// the AI agent, or to say_not_configured when AI is disabled.
	RouteInboundCall(ctx context.Context, event models.CallEvent) (*models.CallDirective, error)
	// RouteNoAnswer hands a call the staff did not pick up to the AI agent.
	RouteNoAnswer(ctx context.Context, event models.CallEvent) (*models.CallDirective, error)
}

type callRouter struct {
	tenants   TenantService
	voice     config.VoiceConfig
	publicURL string
	location  *time.Location
	now       func() time.Time
}

// NewCallRouter creates a new instance of CallRouter.
func NewCallRouter(ts TenantService, voice config.VoiceConfig, publicURL string, loc *time.Location) CallRouter {
	return &callRouter{
		tenants:   ts,
		voice:     voice,
		publicURL: strings.TrimRight(publicURL, "/"),
		location:  loc,
		now:       time.Now,
	}
}

func (r *callRouter) RouteInboundCall(ctx context.Context, event models.CallEvent) (*models.CallDirective, error) {
	tenant, found, err := r.tenants.FindTenantByVoiceLine(ctx, event.DestinationLine)
	if err != nil {
		return nil, err
	}
	if !found {
		utils.LogWarn("Call on unknown voice line", map[string]interface{}{"line": event.DestinationLine, "call_id": event.CallID})
		return r.notConfigured(event, ""), nil
	}

	decision := Decide(tenant, r.now(), r.location)
	if decision == models.RouteStaff && tenant.StaffPhone == nil {
		if !tenant.AIAllowed() {
			utils.LogWarn("No staff phone configured and AI disabled", map[string]interface{}{"restaurant_id": tenant.ID, "call_id": event.CallID})
			return r.notConfigured(event, tenant.ID), nil
		}
		utils.LogWarn("No staff phone configured, routing call to AI", map[string]interface{}{"restaurant_id": tenant.ID, "call_id": event.CallID})
		decision = models.RouteAI
	}

	var directive *models.CallDirective
	if decision == models.RouteAI {
		directive = r.toAI(tenant, event)
	} else {
		directive = &models.CallDirective{
			CallID:         event.CallID,
			Action:         models.ActionDialStaff,
			Decision:       models.RouteStaff,
			TenantID:       tenant.ID,
			DialNumber:     utils.DerefString(tenant.StaffPhone),
			TimeoutSeconds: r.voice.StaffTimeoutSec,
			FallbackURL:    r.publicURL + NoAnswerPath,
		}
	}

	metrics.RecordRoutingDecision(string(directive.Action))
	utils.LogInfo("Inbound call routed", map[string]interface{}{
		"restaurant_id": tenant.ID,
		"call_id":       event.CallID,
		"decision":      directive.Decision,
	})
	return directive, nil
}

func (r *callRouter) RouteNoAnswer(ctx context.Context, event models.CallEvent) (*models.CallDirective, error) {
	tenant, found, err := r.tenants.FindTenantByVoiceLine(ctx, event.DestinationLine)
	if err != nil {
		return nil, err
	}
	if !found {
		utils.LogWarn("Call on unknown voice line", map[string]interface{}{"line": event.DestinationLine, "call_id": event.CallID})
		return r.notConfigured(event, ""), nil
	}
	directive := r.toAI(tenant, event)
	metrics.RecordRoutingDecision(string(directive.Action))
	utils.LogInfo("Staff did not answer, routing call to AI", map[string]interface{}{"restaurant_id": tenant.ID, "call_id": event.CallID})
	return directive, nil
}

func (r *callRouter) toAI(tenant *models.Tenant, event models.CallEvent) *models.CallDirective {
	return &models.CallDirective{
		CallID:      event.CallID,
		Action:      models.ActionRouteToAI,
		Decision:    models.RouteAI,
		TenantID:    tenant.ID,
		Say:         r.voice.Greeting,
		AssistantID: r.voice.AssistantID,
	}
}

// notConfigured ends a call nobody can take. tenantID is empty for unknown lines.
func (r *callRouter) notConfigured(event models.CallEvent, tenantID string) *models.CallDirective {
	metrics.RecordRoutingDecision(string(models.ActionSayNotConfigured))
	return &models.CallDirective{
		CallID:   event.CallID,
		Action:   models.ActionSayNotConfigured,
		TenantID: tenantID,
		Say:      r.voice.NotConfigured,
	}
}
