package ledger

import "errors"

// Error kinds. Match them with errors.Is.
var (
	// ErrValidation covers bad input: non-positive values, missing installment
	// counts, duplicate or self-referencing creditors and split totals above
	// the parent value.
	ErrValidation = errors.New("validation error")
	// ErrNotFound is a validation error for an unknown id. Stores wrap it for
	// missing rows.
	ErrNotFound = errors.New("not found")
	// ErrPermission means the actor does not own the referenced record.
	ErrPermission = errors.New("permission denied")
	// ErrConsistency means the operation targets a disabled record.
	ErrConsistency = errors.New("consistency error")
)

// Error is returned for every rejected operation. Msg is safe to show to
// the caller.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Kind == ErrNotFound {
		return []error{ErrNotFound, ErrValidation}
	}
	return []error{e.Kind}
}

func validation(msg string) error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

func notFound(msg string) error {
	return &Error{Kind: ErrNotFound, Msg: msg}
}

func forbidden(msg string) error {
	return &Error{Kind: ErrPermission, Msg: msg}
}

func inconsistent(msg string) error {
	return &Error{Kind: ErrConsistency, Msg: msg}
}

// lookup turns a store's missing-row error into a not-found error carrying
// msg and passes anything else through.
func lookup(err error, msg string) error {
	if errors.Is(err, ErrNotFound) {
		return notFound(msg)
	}
	return err
}
