package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"genforge-core/internal/domain/entity"

	"google.golang.org/genai"
)

// classifyError wraps an upstream failure with the matching taxonomy error.
// Caller cancellation is passed through untouched.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", entity.ErrTimeout, err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", entity.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", entity.ErrTransientNetwork, err)
}

func classifyStatus(status int, cause error) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %v", entity.ErrAuthenticationFailure, cause)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %v", entity.ErrTimeout, cause)
	default:
		return fmt.Errorf("%w: %v", entity.ErrTransientNetwork, cause)
	}
}
