package compute

import (
	"context"
	"errors"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Cause classifies why a remote call failed.
type Cause int

const (
	CauseUnknown    Cause = iota
	CauseNetwork          // transport failure or server-side 5xx
	CauseNotFound         // instance, zone, or project does not exist
	CausePermission       // 401/403 from the API
	CauseCancelled        // the caller cancelled the request context
	CauseCredential       // the credential backing the client is no longer usable
)

func (c Cause) String() string {
	switch c {
	case CauseNetwork:
		return "network"
	case CauseNotFound:
		return "not-found"
	case CausePermission:
		return "permission"
	case CauseCancelled:
		return "cancelled"
	case CauseCredential:
		return "credential"
	default:
		return "unknown"
	}
}

// Classify maps an error returned by API into a Cause.
func Classify(err error) Cause {
	if err == nil {
		return CauseUnknown
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CauseCancelled
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusNotFound:
			return CauseNotFound
		case apiErr.Code == http.StatusUnauthorized, apiErr.Code == http.StatusForbidden:
			return CausePermission
		case apiErr.Code >= http.StatusInternalServerError:
			return CauseNetwork
		}
		return CauseUnknown
	}

	// *url.Error satisfies net.Error, so transport failures land here.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return CauseNetwork
	}
	return CauseUnknown
}
