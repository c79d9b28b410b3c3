package setupot

import (
	"errors"
	"fmt"

	"github.com/otsetup/otsetup-go/pkg/otsettings"
)

// ATTError is an ATT protocol error code returned to the client.
type ATTError uint8

// ATT error codes used by the service.
const (
	// ErrReadNotPermitted indicates the characteristic cannot be read.
	ErrReadNotPermitted ATTError = 0x02

	// ErrWriteNotPermitted indicates the characteristic or write type is not allowed.
	ErrWriteNotPermitted ATTError = 0x03

	// ErrRequestNotSupported indicates there is no value to serve.
	ErrRequestNotSupported ATTError = 0x06

	// ErrInvalidOffset indicates the offset is past the end of the value.
	ErrInvalidOffset ATTError = 0x07

	// ErrInvalidAttributeValueLength indicates the value has the wrong size.
	ErrInvalidAttributeValueLength ATTError = 0x0D

	// ErrUnlikely indicates the request failed for an unexpected reason,
	// such as a storage failure.
	ErrUnlikely ATTError = 0x0E
)

// String returns the error name.
func (e ATTError) String() string {
	switch e {
	case ErrReadNotPermitted:
		return "READ_NOT_PERMITTED"
	case ErrWriteNotPermitted:
		return "WRITE_NOT_PERMITTED"
	case ErrRequestNotSupported:
		return "REQUEST_NOT_SUPPORTED"
	case ErrInvalidOffset:
		return "INVALID_OFFSET"
	case ErrInvalidAttributeValueLength:
		return "INVALID_ATTRIBUTE_VALUE_LENGTH"
	case ErrUnlikely:
		return "UNLIKELY_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Error implements the error interface.
func (e ATTError) Error() string {
	return fmt.Sprintf("att error 0x%02x: %s", uint8(e), e.String())
}

// ATTErrorFor maps a registry error to the ATT error sent to the client.
// A nil error maps to 0.
func ATTErrorFor(err error) ATTError {
	var att ATTError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &att):
		return att
	case errors.Is(err, otsettings.ErrInvalidOffset):
		return ErrInvalidOffset
	case errors.Is(err, otsettings.ErrInvalidLength):
		return ErrInvalidAttributeValueLength
	case errors.Is(err, otsettings.ErrPersistence):
		return ErrUnlikely
	case errors.Is(err, otsettings.ErrNotFound),
		errors.Is(err, otsettings.ErrUnsupported),
		errors.Is(err, otsettings.ErrNotInitialized):
		return ErrRequestNotSupported
	default:
		return ErrUnlikely
	}
}
