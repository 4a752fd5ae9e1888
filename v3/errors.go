package v3

// Error is the same as mdwatch.Error, but avoids a circular import.
type Error struct {
	message  string
	deco     []string
	critical bool
}

// Error returns a string with an error message.
func (err Error) Error() string {
	return err.message
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical returns whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

// PanicMsg is a message used for panics, even though it does satisfy the error interface.
// for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix    = PanicMsg("mdwatch/v3: A Matrix should have 3 columns")
	ErrGonum           = PanicMsg("mdwatch/v3: Error in gonum function")
	ErrDeterminant     = PanicMsg("mdwatch/v3: Determinants are only available for 3x3 matrices")
	ErrShape           = PanicMsg("mdwatch/v3: Dimension mismatch")
	ErrIndexOutOfRange = PanicMsg("mdwatch/v3: index out of range")
)
