// Package otel provides OpenTelemetry metric instruments for the platform
// core. Instruments are registered against the global meter provider; without
// an SDK configured they are no-ops, which is the default for local runs.
package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "tokyoflo"

// Metrics holds all platform metric instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Resolutions     metric.Int64Counter
	Logins          metric.Int64Counter
	GateDecisions   metric.Int64Counter
	ActionsRecorded metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Resolutions, err = meter.Int64Counter("tokyoflo.tenant.resolutions",
		metric.WithDescription("Host-to-tenant resolutions by outcome"))
	if err != nil {
		return nil, err
	}

	m.Logins, err = meter.Int64Counter("tokyoflo.auth.logins",
		metric.WithDescription("Login attempts by outcome"))
	if err != nil {
		return nil, err
	}

	m.GateDecisions, err = meter.Int64Counter("tokyoflo.gate.decisions",
		metric.WithDescription("Access gate decisions by verdict"))
	if err != nil {
		return nil, err
	}

	m.ActionsRecorded, err = meter.Int64Counter("tokyoflo.actions.recorded",
		metric.WithDescription("Tracked actions recorded"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// CountResolution records a tenant resolution outcome.
func (m *Metrics) CountResolution(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.Resolutions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// CountLogin records a login attempt outcome.
func (m *Metrics) CountLogin(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.Logins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// CountGateDecision records an access gate verdict.
func (m *Metrics) CountGateDecision(ctx context.Context, verdict string) {
	if m == nil {
		return
	}
	m.GateDecisions.Add(ctx, 1, metric.WithAttributes(attribute.String("verdict", verdict)))
}

// CountAction records a tracked action.
func (m *Metrics) CountAction(ctx context.Context, name string) {
	if m == nil {
		return
	}
	m.ActionsRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("action", name)))
}
