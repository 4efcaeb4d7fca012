package setupgeth

import (
	"errors"
	"fmt"

	"github.com/aexvir/setup-geth/binary"
	"github.com/aexvir/setup-geth/release"
	"github.com/aexvir/setup-geth/version"
)

// Kind classifies why an installation failed.
type Kind int

const (
	InvalidVersion Kind = iota + 1
	FetchError
	ExtractError
	InstallError
	VerificationError
)

func (k Kind) String() string {
	switch k {
	case InvalidVersion:
		return "InvalidVersion"
	case FetchError:
		return "FetchError"
	case ExtractError:
		return "ExtractError"
	case InstallError:
		return "InstallError"
	case VerificationError:
		return "VerificationError"
	default:
		return "UnknownError"
	}
}

// StageError is the terminal error of a failed run, naming the stage it failed in.
type StageError struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a failed run's error, or 0 if err isn't a [StageError].
func KindOf(err error) Kind {
	var serr *StageError
	if errors.As(err, &serr) {
		return serr.Kind
	}
	return 0
}

// classify maps an error to its kind by the sentinel it wraps.
// Errors without a known sentinel take the kind associated with the stage.
func classify(stage Stage, err error) Kind {
	switch {
	case errors.Is(err, version.ErrInvalidVersion):
		return InvalidVersion
	case errors.Is(err, binary.ErrFetch), errors.Is(err, release.ErrUnavailable):
		return FetchError
	case errors.Is(err, binary.ErrExtract):
		return ExtractError
	case errors.Is(err, binary.ErrInstall):
		return InstallError
	case errors.Is(err, ErrVerification):
		return VerificationError
	}

	switch stage {
	case Resolving:
		return FetchError
	case Verifying:
		return VerificationError
	default:
		return InstallError
	}
}
