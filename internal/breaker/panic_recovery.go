package breaker

import "go.uber.org/zap"

// safeEmit dispatches event to every listener, recovering a panicking
// listener so one bad callback cannot corrupt a Call in flight. This
// generalizes the teacher's safeCallOnStateChange (internal/breaker's
// original panic_recovery.go): the teacher logged panics with a
// package-level fmt.Printf guarded by a mutex; here every breaker carries
// its own *zap.Logger instead, since the engine no longer owns stdout.
func (b *Breaker) safeEmit(listener Listener, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("listener panicked",
				zap.String("breaker", b.key.Name),
				zap.String("event", string(event.Type)),
				zap.Any("panic", r),
			)
		}
	}()
	listener(event)
}

// safeFallback invokes handler with panic recovery, treating a panic as
// "no fallback value" the same way the teacher's
// handleIsSuccessfulPanic/handleReadyToTripPanic fall back to a
// conservative default rather than letting the panic escape Call.
func (b *Breaker) safeFallback(handler FallbackFunc, name string) (value interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("fallback handler panicked",
				zap.String("breaker", name),
				zap.Any("panic", r),
			)
			value, err = nil, nil
		}
	}()
	return handler(name)
}
