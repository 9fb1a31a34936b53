// internal/product/classify.go
package product

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	commonerrors "storefront/internal/common/errors"
	commonhttp "storefront/internal/common/http"
)

type Kind string

const (
	KindNetwork   Kind = "network"
	KindHTTP      Kind = "http"
	KindMalformed Kind = "malformed"
	KindNotFound  Kind = "not_found"
	KindUnknown   Kind = "unknown"
)

// Failure is the shopper-facing description of a failed product fetch.
type Failure struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	err        error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.err }

// Classify sorts a product fetch error into one of the failure kinds. It
// returns nil for a nil error.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}

	var statusErr *commonhttp.StatusError
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return &Failure{Kind: KindUnknown, Message: "Something went wrong while loading the product.", err: err}
	case errors.Is(err, ErrProductNotFound):
		return &Failure{Kind: KindNotFound, Message: "Product not found.", err: err}
	case errors.As(err, &statusErr):
		return &Failure{
			Kind:       KindHTTP,
			Message:    fmt.Sprintf("Product request failed: %d %s", statusErr.StatusCode, statusErr.Reason),
			StatusCode: statusErr.StatusCode,
			err:        err,
		}
	case errors.Is(err, ErrMalformedResponse):
		return &Failure{Kind: KindMalformed, Message: "Product data could not be read.", err: err}
	case commonhttp.IsNetworkError(err),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, driver.ErrBadConn),
		errors.As(err, &netErr):
		return &Failure{
			Kind:    KindNetwork,
			Message: "Unable to reach the product service. Check your connection and try again.",
			err:     err,
		}
	}
	return &Failure{Kind: KindUnknown, Message: "Something went wrong while loading the product.", err: err}
}

// StandardError converts the failure for the JSON API.
func (f *Failure) StandardError(productID string) *commonerrors.StandardError {
	var stdErr *commonerrors.StandardError
	switch f.Kind {
	case KindNotFound:
		stdErr = commonerrors.NewProductNotFoundError(productID)
	case KindHTTP:
		stdErr = commonerrors.NewBackendStatusError(BackendName, f.StatusCode, httpReason(f.err))
	case KindMalformed:
		stdErr = commonerrors.NewMalformedResponseError(BackendName, f.err)
	case KindNetwork:
		if errors.Is(f.err, context.DeadlineExceeded) {
			stdErr = commonerrors.NewBackendTimeoutError(BackendName)
		} else {
			stdErr = commonerrors.NewBackendUnreachableError(BackendName, f.err)
		}
	default:
		stdErr = commonerrors.NewInternalError(f.err)
	}
	stdErr.Message = f.Message
	return stdErr.WithMetadata("productId", productID).WithMetadata("failureKind", string(f.Kind))
}

func httpReason(err error) string {
	var statusErr *commonhttp.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Reason
	}
	return ""
}
