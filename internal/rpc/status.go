package rpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pairjournal/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToStatus converts a service error into a gRPC status. Errors that match no
// sentinel become codes.Internal without leaking their text.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}

// FromStatus converts a gRPC error back into a sentinel-wrapped error.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	msg := st.Message()
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, msg)
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrForbidden, msg)
	case codes.Unauthenticated:
		if msg == common.ErrTokenExpired.Error() {
			return common.ErrTokenExpired
		}
		return fmt.Errorf("%w: %s", common.ErrUnauthorized, msg)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", common.ErrAlreadyExists, msg)
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrInvalidInput, msg)
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", common.ErrUnavailable, msg)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %w", common.ErrUnavailable, context.DeadlineExceeded)
	case codes.Canceled:
		return context.Canceled
	}
	return fmt.Errorf("%w: rpc error: %s", common.ErrorInternal, msg)
}
