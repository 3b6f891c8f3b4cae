package ttdm

import (
	"context"

	"github.com/gogf/gf/container/gtype"
	"github.com/gogf/gf/os/glog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Optional function-trace and handle-value logging toggles, modeled as
// runtime gtype.Bool flags rather than build tags so an embedding
// application can flip them without a rebuild. Both default off; the DM
// never writes to stdout and never logs anything unsolicited.
var (
	traceFunctionCalls = gtype.NewBool(false)
	traceHandleValues  = gtype.NewBool(false)
)

// EnableFunctionTrace turns on (or off) per-call tracing to standard error
// via glog.
func EnableFunctionTrace(on bool) { traceFunctionCalls.Set(on) }

// EnableHandleValueTrace turns on (or off) logging of raw handle pointer
// values alongside function-trace output.
func EnableHandleValueTrace(on bool) { traceHandleValues.Set(on) }

var tracer = otel.Tracer("github.com/timesten/ttdm")

var dmLogger = glog.New()

// traceStart opens one OTel span for a dispatch shim invocation, and, if
// function-trace logging is enabled, a glog.Debug line naming the entry
// point and, if handle-value tracing is also on, the handle's identity. The
// returned end func must be deferred with a pointer to the shim's own
// result variable, so the span status reflects whatever the shim actually
// returns however many return statements it has.
func traceStart(ctx context.Context, entryPoint string, handleID string) (context.Context, func(ret *ReturnCode)) {
	ctx, span := tracer.Start(ctx, entryPoint, trace.WithSpanKind(trace.SpanKindClient))

	if traceFunctionCalls.Val() {
		if traceHandleValues.Val() {
			dmLogger.Ctx(ctx).Debugf("ttdm: %s handle=%s", entryPoint, handleID)
		} else {
			dmLogger.Ctx(ctx).Debugf("ttdm: %s", entryPoint)
		}
	}

	return ctx, func(ret *ReturnCode) {
		if ret != nil && (*ret == ReturnError || *ret == ReturnInvalidHandle) {
			span.SetStatus(codes.Error, entryPoint)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}
