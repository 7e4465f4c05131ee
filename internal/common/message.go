package common

import "errors"

// UserMessage renders err as a sentence suitable for an end user.
// ErrStaleScope yields an empty string: callers should not show anything.
func UserMessage(err error) string {
	var ve *ValidationError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStaleScope):
		return ""
	case errors.As(err, &ve):
		return "Please check the " + ve.Field + " field: " + ve.Reason + "."
	case errors.Is(err, ErrValidation):
		return "Please fill all fields to save password"
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password. Please try again."
	case errors.Is(err, ErrUnregistered):
		return "You are not yet registered. Please create an account first."
	case errors.Is(err, ErrEmailInUse):
		return "This email is already registered. Please sign in instead."
	case errors.Is(err, ErrWeakSecret):
		return "Password is too weak. Please choose a stronger password."
	case errors.Is(err, ErrNotAuthenticated):
		return "You are signed out. Please sign in first."
	case errors.Is(err, ErrNotFound):
		return "This password no longer exists."
	case errors.Is(err, ErrNetworkFailure):
		return "Network error. Please check your connection."
	default:
		return "Something went wrong. Please try again."
	}
}
