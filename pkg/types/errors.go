package types

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindNotFound         ErrKind = iota // lookup returned nothing where an answer was required
	ErrKindInvalidArgument                 // malformed command line, path, or URI
	ErrKindNoVerbs                         // app (and handler) have no verb to invoke
	ErrKindLaunchFailed                    // the platform refused to start the child
	ErrKindActivationFailed                // packaged-app activation returned a failure
	ErrKindEncoding                        // input was not well-formed UTF-16
	ErrKindUnsupported                     // backend or platform cannot do this
	ErrKindFormat                          // malformed file (bad regf header, bad .reg text)
	ErrKindCorrupt                         // structural corruption inside a hive
)

// String returns a short lowercase name for the kind.
func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not-found"
	case ErrKindInvalidArgument:
		return "invalid-argument"
	case ErrKindNoVerbs:
		return "no-verbs"
	case ErrKindLaunchFailed:
		return "launch-failed"
	case ErrKindActivationFailed:
		return "activation-failed"
	case ErrKindEncoding:
		return "encoding"
	case ErrKindUnsupported:
		return "unsupported"
	case ErrKindFormat:
		return "format"
	case ErrKindCorrupt:
		return "corrupt"
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

// Is reports whether target is an *Error of the same kind. This lets callers
// match any error of a category against the sentinels below with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels commonly returned by implementations.
var (
	// ErrNotFound indicates a missing key, value, or record.
	ErrNotFound = &Error{Kind: ErrKindNotFound, Msg: "not found"}
	// ErrInvalidArgument indicates a malformed command line, path, or URI.
	ErrInvalidArgument = &Error{Kind: ErrKindInvalidArgument, Msg: "invalid argument"}
	// ErrNoVerbs indicates the selected app has nothing to invoke.
	ErrNoVerbs = &Error{Kind: ErrKindNoVerbs, Msg: "no verbs"}
	// ErrLaunchFailed indicates a child process could not be started.
	ErrLaunchFailed = &Error{Kind: ErrKindLaunchFailed, Msg: "launch failed"}
	// ErrActivationFailed indicates packaged-app activation failed.
	ErrActivationFailed = &Error{Kind: ErrKindActivationFailed, Msg: "activation failed"}
	// ErrEncoding indicates ill-formed UTF-16 input.
	ErrEncoding = &Error{Kind: ErrKindEncoding, Msg: "invalid UTF-16"}
	// ErrUnsupported indicates the operation is not available here.
	ErrUnsupported = &Error{Kind: ErrKindUnsupported, Msg: "unsupported"}
	// ErrNotHive indicates the file lacks a valid "regf" header.
	ErrNotHive = &Error{Kind: ErrKindFormat, Msg: "not a registry hive (bad regf header)"}
	// ErrCorrupt indicates non-recoverable structural inconsistency.
	ErrCorrupt = &Error{Kind: ErrKindCorrupt, Msg: "corrupt hive structure"}
)
