package apierror

// Notifier receives classified errors that are eligible for a user-facing
// notification, the way the web client surfaced them as toasts. Unauthorized
// failures are never notified: they are handled by the session-expired
// redirect flow instead.
type Notifier interface {
	Notify(err *Error)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(err *Error)

func (f NotifierFunc) Notify(err *Error) { f(err) }

// Notify forwards err to the notifier when the error's kind is eligible.
// A nil notifier or a nil error is a no-op, so callers can opt out per call.
func Notify(n Notifier, err *Error) {
	if n == nil || err == nil {
		return
	}
	if err.Kind == KindUnauthorized {
		return
	}
	n.Notify(err)
}
