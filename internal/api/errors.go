package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sivakumaru2002/devops-ease-access/internal/domain"
)

const (
	msgInvalidSession = "Invalid session"
	msgSessionExpired = "Session expired"
	msgInternal       = "Internal server error"
)

// statusFor maps a service error to an HTTP status and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, msgSessionExpired
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, msgInvalidSession
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		return upstreamStatus(upstream)
	}

	return http.StatusInternalServerError, msgInternal
}

func upstreamStatus(err *domain.UpstreamError) (int, string) {
	msg := fmt.Sprintf("Azure DevOps request failed: %v", err.Err)

	switch {
	case err.Timeout():
		return http.StatusGatewayTimeout, msg
	case err.StatusCode() == http.StatusNotFound:
		return http.StatusNotFound, msg
	case err.AuthRejected():
		return http.StatusForbidden, msg
	default:
		return http.StatusBadGateway, msg
	}
}
