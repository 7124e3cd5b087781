package rpc

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorInfo reasons for domain errors crossing the bridge.
const (
	ReasonValidation         = "VALIDATION_FAILED"
	ReasonDuplicateEmail     = "DUPLICATE_EMAIL"
	ReasonDuplicateUsername  = "DUPLICATE_USERNAME"
	ReasonInvalidCredentials = "INVALID_CREDENTIALS"
)

// ToStatus converts a service error into a gRPC status error. Domain errors
// carry an errdetails.ErrorInfo so the client can restore the sentinel;
// anything else becomes a bare Internal status without internal detail.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}

	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		return withInfo(codes.InvalidArgument, ve.Error(), ReasonValidation, ve.Fields)
	case errors.Is(err, common.ErrValidation):
		return withInfo(codes.InvalidArgument, common.ErrValidation.Error(), ReasonValidation, nil)
	case errors.Is(err, common.ErrDuplicateEmail):
		return withInfo(codes.AlreadyExists, common.ErrDuplicateEmail.Error(), ReasonDuplicateEmail, nil)
	case errors.Is(err, common.ErrDuplicateUsername):
		return withInfo(codes.AlreadyExists, common.ErrDuplicateUsername.Error(), ReasonDuplicateUsername, nil)
	case errors.Is(err, common.ErrInvalidCredentials):
		return withInfo(codes.Unauthenticated, common.ErrInvalidCredentials.Error(), ReasonInvalidCredentials, nil)
	}

	return status.Error(codes.Internal, common.ErrInternal.Error())
}

func withInfo(code codes.Code, msg, reason string, md map[string]string) error {
	st := status.New(code, msg)
	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   reason,
		Domain:   common.ErrorDomain,
		Metadata: md,
	})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}

// FromStatus restores the domain error carried by a gRPC status. Transport
// failures and statuses without a recognised reason wrap
// common.ErrUpstreamUnavailable.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %w", common.ErrUpstreamUnavailable, err)
	}

	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != common.ErrorDomain {
			continue
		}
		switch info.GetReason() {
		case ReasonValidation:
			return &common.ValidationError{Fields: info.GetMetadata()}
		case ReasonDuplicateEmail:
			return common.ErrDuplicateEmail
		case ReasonDuplicateUsername:
			return common.ErrDuplicateUsername
		case ReasonInvalidCredentials:
			return common.ErrInvalidCredentials
		}
	}

	return fmt.Errorf("%w: %s: %s", common.ErrUpstreamUnavailable, st.Code(), st.Message())
}
