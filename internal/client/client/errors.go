package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/securevault/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Status messages set by the server that change client behavior.
const (
	statusTokenExpired       = "token expired"
	statusInvalidCredentials = "invalid credentials"
)

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == statusTokenExpired
}

// mapError translates a gRPC error into the common taxonomy.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", common.ErrNetworkFailure, err)
	}

	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %v", common.ErrBackendFailure, err)
	}

	switch st.Code() {
	case codes.InvalidArgument:
		if field, reason, ok := strings.Cut(st.Message(), ": "); ok && !strings.ContainsAny(field, " \t") {
			return common.NewValidationError(field, reason)
		}
		return fmt.Errorf("%w: %s", common.ErrValidation, st.Message())
	case codes.FailedPrecondition:
		return common.ErrWeakSecret
	case codes.AlreadyExists:
		return common.ErrEmailInUse
	case codes.NotFound:
		return common.ErrNotFound
	case codes.Unauthenticated:
		if st.Message() == statusInvalidCredentials {
			return common.ErrInvalidCredentials
		}
		return fmt.Errorf("%w: %s", common.ErrNotAuthenticated, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", common.ErrNetworkFailure, st.Message())
	default:
		return fmt.Errorf("%w: %s", common.ErrBackendFailure, st.Message())
	}
}

// mapSignInError is mapError except that an explicit NotFound means the
// account does not exist.
func mapSignInError(err error) error {
	if status.Code(err) == codes.NotFound {
		return common.ErrUnregistered
	}
	return mapError(err)
}
