// Package validator checks API input before it reaches the gateway. It
// returns per-field error details.
package validator

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
)

const maxURLLength = 2048

// ValidationError holds per-field failure messages. It matches
// apperrors.ErrInvalidInput.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return apperrors.ErrInvalidInput }

// ValidateEnqueue accepts absolute http(s) URLs with a host.
func ValidateEnqueue(req *proto.EnqueueRequest) error {
	errs := make(map[string]string)
	raw := strings.TrimSpace(req.URL)
	switch {
	case raw == "":
		errs["url"] = "url is required"
	case len(raw) > maxURLLength:
		errs["url"] = fmt.Sprintf("url must be at most %d characters", maxURLLength)
	default:
		u, err := url.Parse(raw)
		switch {
		case err != nil:
			errs["url"] = "url is malformed"
		case u.Scheme != "http" && u.Scheme != "https":
			errs["url"] = "url must use http or https"
		case u.Host == "":
			errs["url"] = "url must include a host"
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	req.URL = raw
	return nil
}
