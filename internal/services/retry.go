package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
)

// retryBaseDelay is the first backoff step; it doubles on every attempt.
var retryBaseDelay = time.Second

// callWithRetry runs fn under a per-attempt timeout and retries transient
// upstream failures up to maxRetries extra times.
func callWithRetry(ctx context.Context, timeout time.Duration, maxRetries int, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		attemptCtx := ctx
		cancel := func() {}
		if timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		err = fn(attemptCtx)
		cancel()

		if err == nil || attempt >= maxRetries || !isRetryable(err) {
			return err
		}

		backoff := retryBaseDelay * time.Duration(1<<uint(attempt))
		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff):
		}
	}
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	// Safety blocks are final.
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return false
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return retryableStatus(gerr.Code)
	}

	if aerr, ok := apierror.FromError(err); ok {
		if code := aerr.HTTPCode(); code > 0 {
			return retryableStatus(code)
		}
		return retryableCode(aerr.GRPCStatus().Code())
	}

	var ue *UpstreamError
	if errors.As(err, &ue) && ue.StatusCode != 0 {
		return retryableStatus(ue.StatusCode)
	}

	// Transport-level failure (timeout, refused connection, reset).
	return true
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func retryableCode(code codes.Code) bool {
	switch code {
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal, codes.DeadlineExceeded, codes.Aborted:
		return true
	}
	return false
}
