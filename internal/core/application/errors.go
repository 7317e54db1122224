package application

import (
	"errors"
	"fmt"

	"github.com/tdex-network/walletd/internal/core/domain"
	"github.com/tdex-network/walletd/pkg/rpcmodel"
)

var (
	// ErrSignerNotAvailable is returned when an operation requires signing
	// capability but the named signer is external.
	ErrSignerNotAvailable = errors.New("signer is external, it cannot derive keys nor sign")
	// ErrInvalidSignerKind ...
	ErrInvalidSignerKind = errors.New("signer kind must be one of software, serial, external")
	// ErrMissingMnemonic ...
	ErrMissingMnemonic = errors.New("mnemonic must be set for software signer")
	// ErrMissingFingerprint ...
	ErrMissingFingerprint = errors.New("fingerprint must be set for external signer")
	// ErrInvalidPset is returned when a partial transaction cannot be parsed.
	ErrInvalidPset = errors.New("invalid pset")
	// ErrMissingPsets ...
	ErrMissingPsets = errors.New("at least one pset is required")
	// ErrStop is the sentinel returned by the stop method. It is not a
	// failure, the transport replies to the caller and then shuts down.
	ErrStop = errors.New("stop requested")
	// ErrAlreadyStarted is returned when starting a server already running.
	ErrAlreadyStarted = errors.New("server already started")
	// ErrNotStarted is returned when using a server that was never started.
	ErrNotStarted = errors.New("server not started")
)

// ErrorKind classifies errors for the transport layer.
type ErrorKind int

const (
	KindUpstream ErrorKind = iota
	KindParameter
	KindNotFound
	KindConflict
	KindLifecycle
	KindStop
)

func (k ErrorKind) String() string {
	switch k {
	case KindParameter:
		return "parameter"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindLifecycle:
		return "lifecycle"
	case KindStop:
		return "stop"
	default:
		return "upstream"
	}
}

// Error is an error with an explicit kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func paramError(err error) error {
	return &Error{KindParameter, err}
}

func paramErrorf(format string, args ...interface{}) error {
	return paramError(fmt.Errorf(format, args...))
}

var parameterErrors = []error{
	domain.ErrEmptyName,
	domain.ErrInvalidFingerprint,
	domain.ErrInvalidDescriptor,
	domain.ErrUnsupportedDescriptor,
	domain.ErrInvalidKeyOriginXpub,
	domain.ErrInvalidDerivationPath,
	domain.ErrInvalidSinglesigVariant,
	domain.ErrInvalidMultisigVariant,
	domain.ErrInvalidBlindingKeyVariant,
	domain.ErrInvalidBipVariant,
	domain.ErrInvalidThreshold,
	domain.ErrMultisigSlip77,
	domain.ErrSlip77RandSinglesig,
	domain.ErrInvalidContract,
	domain.ErrInvalidAssetID,
	domain.ErrInvalidAddressee,
	domain.ErrPsetMismatch,
	domain.ErrInvalidFeeRate,
	domain.ErrIndexNotRanged,
	rpcmodel.ErrUnknownMethod,
	rpcmodel.ErrInvalidDirection,
	ErrSignerNotAvailable,
	ErrInvalidSignerKind,
	ErrMissingMnemonic,
	ErrMissingFingerprint,
	ErrInvalidPset,
	ErrMissingPsets,
}

// KindOf returns the kind of the given error. Errors of unknown origin are
// considered upstream failures.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	switch {
	case errors.Is(err, ErrStop):
		return KindStop
	case errors.Is(err, ErrAlreadyStarted), errors.Is(err, ErrNotStarted):
		return KindLifecycle
	case errors.Is(err, domain.ErrNameNotFound), errors.Is(err, domain.ErrAssetNotFound):
		return KindNotFound
	case errors.Is(err, domain.ErrNameAlreadyExists):
		return KindConflict
	}

	for _, e := range parameterErrors {
		if errors.Is(err, e) {
			return KindParameter
		}
	}
	return KindUpstream
}
