package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/googol/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/proto"
)

func TestValidateEnqueue(t *testing.T) {
	tests := []struct {
		name string
		url  string
		msg  string
	}{
		{"empty", "  ", "url is required"},
		{"relative", "/about", "url must use http or https"},
		{"ftp", "ftp://files.example.com", "url must use http or https"},
		{"no host", "http://", "url must include a host"},
		{"malformed", "http://[::1", "url is malformed"},
		{"too long", "http://a.com/" + strings.Repeat("x", maxURLLength), "url must be at most"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEnqueue(&proto.EnqueueRequest{URL: tt.url})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields["url"], tt.msg)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestValidateEnqueueTrims(t *testing.T) {
	req := &proto.EnqueueRequest{URL: " https://go.dev/doc "}
	require.NoError(t, ValidateEnqueue(req))
	assert.Equal(t, "https://go.dev/doc", req.URL)
}
