package apperror

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code maps a kind onto the gRPC status code clients see.
func (k Kind) Code() codes.Code {
	switch k {
	case KindInvalidArgument, KindInvalidProduct:
		return codes.InvalidArgument
	case KindInvalidTransition, KindInsufficientStock, KindInsufficientReservation:
		return codes.FailedPrecondition
	case KindForbidden:
		return codes.PermissionDenied
	case KindNotFound:
		return codes.NotFound
	case KindConcurrencyTimeout:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// ToStatus converts err into a gRPC status error. Errors outside the domain
// taxonomy are reported as Internal without leaking their text.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(appErr.Kind.Code(), appErr.Error())
}
