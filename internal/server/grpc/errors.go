package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/securevault/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Status messages for credential and refresh failures.
const (
	msgInvalidCredentials  = "invalid credentials"
	msgRefreshTokenExpired = "refresh token expired"
)

// toStatus maps service errors to gRPC statuses. Validation failures carry
// "field: reason" so the client can rebuild a common.ValidationError.
// Anything unrecognized is logged and reported as Internal without detail.
func (s *GRPCServer) toStatus(ctx context.Context, op string, err error) error {
	var ve *common.ValidationError

	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Field+": "+ve.Reason)
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrWeakSecret):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, common.ErrEmailInUse):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, msgInvalidCredentials)
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, msgRefreshTokenExpired)
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, msgInvalidToken)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	s.logger.Error(ctx, op+" failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}
