package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"AstroChart/pkg/logger"
)

// ConsumerHook wraps message handling.
// A non-nil error from BeforeHandle skips the handler; the message then goes
// through error processing (OnError, DLQ, offset commit).
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, kafka.Message, error)
	AfterHandle(ctx context.Context, km kafka.Message, err error)
	OnError(ctx context.Context, km kafka.Message, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, kafka.Message, error) {
	return ctx, km, nil
}

func (NoopHook) AfterHandle(context.Context, kafka.Message, error) {}

func (NoopHook) OnError(context.Context, kafka.Message, error) {}

// HookFunc adapts a BeforeHandle function into a ConsumerHook.
type HookFunc func(ctx context.Context, km kafka.Message) (context.Context, kafka.Message, error)

func (f HookFunc) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, kafka.Message, error) {
	return f(ctx, km)
}

func (HookFunc) AfterHandle(context.Context, kafka.Message, error) {}

func (HookFunc) OnError(context.Context, kafka.Message, error) {}

// HookError is a classified error that will not succeed on retry.
// Handlers return it for malformed or invalid payloads; the consumer sends
// such messages to the DLQ right away.
type HookError struct {
	Code string // e.g. ERR_DECODE, ERR_VALIDATION
	Err  error
}

func (e *HookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *HookError) Unwrap() error { return e.Err }

// Permanent wraps err as a HookError with the given code.
func Permanent(code string, err error) error {
	return &HookError{Code: code, Err: err}
}

// IsPermanent reports whether err, or anything it wraps, is a HookError.
func IsPermanent(err error) bool {
	var he *HookError
	return errors.As(err, &he)
}

// ErrorCode returns the HookError code in err, or "ERR_HANDLER".
func ErrorCode(err error) string {
	var he *HookError
	if errors.As(err, &he) {
		return he.Code
	}
	return "ERR_HANDLER"
}

// HookChain runs hooks in order before handling and in reverse order after.
// A panicking hook is turned into an ERR_PANIC HookError.
type HookChain struct {
	hooks []ConsumerHook
}

// NewHookChain creates a hook chain. Nil hooks are ignored.
func NewHookChain(hooks ...ConsumerHook) *HookChain {
	filtered := make([]ConsumerHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			filtered = append(filtered, h)
		}
	}
	return &HookChain{hooks: filtered}
}

func (c *HookChain) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, kafka.Message, error) {
	for _, h := range c.hooks {
		nextCtx, nextMsg, err := safeBefore(h, ctx, km)
		if err != nil {
			return ctx, km, err
		}
		ctx, km = nextCtx, nextMsg
	}
	return ctx, km, nil
}

func (c *HookChain) AfterHandle(ctx context.Context, km kafka.Message, err error) {
	for i := len(c.hooks) - 1; i >= 0; i-- {
		h := c.hooks[i]
		guard(func() { h.AfterHandle(ctx, km, err) })
	}
}

func (c *HookChain) OnError(ctx context.Context, km kafka.Message, err error) {
	for _, h := range c.hooks {
		h := h
		guard(func() { h.OnError(ctx, km, err) })
	}
}

func safeBefore(h ConsumerHook, ctx context.Context, km kafka.Message) (outCtx context.Context, outMsg kafka.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			outCtx, outMsg = ctx, km
			err = &HookError{Code: "ERR_PANIC", Err: fmt.Errorf("hook panic: %v", r)}
		}
	}()
	return h.BeforeHandle(ctx, km)
}

func guard(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

type ctxKey string

const (
	ctxStartTime ctxKey = "kafka_start_time"
	ctxRequestID ctxKey = "kafka_request_id"
)

// HeaderRequestID carries the caller's correlation id.
const HeaderRequestID = "request_id"

// RequestIDFromContext returns the request id stored by TracingHook.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID).(string)
	return id
}

// TracingHook copies the request_id header into the context and times handling.
type TracingHook struct{ NoopHook }

func (TracingHook) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, kafka.Message, error) {
	ctx = context.WithValue(ctx, ctxStartTime, time.Now())
	if id := Header(km, HeaderRequestID); id != "" {
		ctx = context.WithValue(ctx, ctxRequestID, id)
	}
	return ctx, km, nil
}

// LoggingHook logs failed attempts and slow messages.
type LoggingHook struct {
	Log  *logger.Logger
	Slow time.Duration
}

func (h LoggingHook) BeforeHandle(ctx context.Context, km kafka.Message) (context.Context, kafka.Message, error) {
	return ctx, km, nil
}

func (h LoggingHook) AfterHandle(ctx context.Context, km kafka.Message, err error) {
	start, ok := ctx.Value(ctxStartTime).(time.Time)
	if !ok || h.Slow <= 0 || err != nil {
		return
	}
	if took := time.Since(start); took > h.Slow {
		h.Log.Warn("slow kafka message",
			logger.String("topic", km.Topic),
			logger.Int("partition", km.Partition),
			logger.Int64("offset", km.Offset),
			logger.Duration("took", took),
		)
	}
}

func (h LoggingHook) OnError(ctx context.Context, km kafka.Message, err error) {
	h.Log.Warn("kafka message attempt failed",
		logger.String("topic", km.Topic),
		logger.Int64("offset", km.Offset),
		logger.String("request_id", RequestIDFromContext(ctx)),
		logger.String("code", ErrorCode(err)),
		logger.Error(err),
	)
}
