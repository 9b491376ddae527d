package grpcstore

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/chewton2k/Imprint/model"
	"github.com/chewton2k/Imprint/store"
)

// mapErr converts storage and authorization errors into gRPC status codes.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, store.ErrNotFound.Error())
	case errors.Is(err, store.ErrInvalidRecord):
		return status.Error(codes.InvalidArgument, store.ErrInvalidRecord.Error())
	case errors.Is(err, store.ErrImmutable):
		return status.Error(codes.AlreadyExists, store.ErrImmutable.Error())
	}
	switch model.CodeOf(err) {
	case model.ErrSignatureInvalid:
		return status.Error(codes.PermissionDenied, err.Error())
	case model.ErrActionExpired:
		return status.Error(codes.DeadlineExceeded, err.Error())
	case model.ErrMalformedInput:
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// mapRPC converts gRPC status codes back into the errors callers branch on.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return store.ErrNotFound
	case codes.AlreadyExists:
		return store.ErrImmutable
	case codes.InvalidArgument:
		if st.Message() == store.ErrInvalidRecord.Error() {
			return store.ErrInvalidRecord
		}
		return model.NewError(model.ErrMalformedInput, st.Message())
	case codes.PermissionDenied:
		return model.NewError(model.ErrSignatureInvalid, st.Message())
	case codes.DeadlineExceeded:
		return model.NewError(model.ErrActionExpired, st.Message())
	default:
		return err
	}
}
