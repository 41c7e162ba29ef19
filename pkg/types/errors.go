package types

import "errors"

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindOutOfRange        ErrKind = iota // cell read beyond the allocated side
	ErrKindResourceExhausted                // growth or board creation could not allocate
	ErrKindNotFound                         // board id, name or path no longer present
	ErrKindInvariant                        // caller bug; raised via panic, never returned
	ErrKindInvalidArgument                  // malformed input written through the interface layer
	ErrKindExists                           // name already registered
	ErrKindPermission                       // write to a read-only node (or read of a write-only one)
)

// String implements fmt.Stringer.
func (k ErrKind) String() string {
	switch k {
	case ErrKindOutOfRange:
		return "out of range"
	case ErrKindResourceExhausted:
		return "resource exhausted"
	case ErrKindNotFound:
		return "not found"
	case ErrKindInvariant:
		return "invariant violation"
	case ErrKindInvalidArgument:
		return "invalid argument"
	case ErrKindExists:
		return "already exists"
	case ErrKindPermission:
		return "permission denied"
	default:
		return "unknown"
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// holds for every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is comparisons.
var (
	// ErrOutOfRange indicates a read at a coordinate >= the allocated side.
	ErrOutOfRange = &Error{Kind: ErrKindOutOfRange, Msg: "coordinate out of range"}
	// ErrResourceExhausted indicates growth or creation failed to allocate.
	ErrResourceExhausted = &Error{Kind: ErrKindResourceExhausted, Msg: "resource exhausted"}
	// ErrNotFound indicates a missing board or path.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "not found"}
	// ErrInvariantViolation is the panic value category for caller bugs.
	ErrInvariantViolation = &Error{Kind: ErrKindInvariant, Msg: "invariant violation"}
	// ErrInvalidArgument indicates malformed input.
	ErrInvalidArgument = &Error{Kind: ErrKindInvalidArgument, Msg: "invalid argument"}
	// ErrExists indicates a name collision.
	ErrExists = &Error{Kind: ErrKindExists, Msg: "already exists"}
	// ErrPermission indicates an operation the node does not support.
	ErrPermission = &Error{Kind: ErrKindPermission, Msg: "permission denied"}
)

// New returns an *Error of the given kind.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap returns an *Error of the given kind wrapping cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (ErrKind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}
