// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/research-tools/pkg/types"
)

// maxErrorBody caps how much of a failed response is kept in UpstreamError.
const maxErrorBody = 64 << 10

// CheckStatus returns nil for a 2xx response. Otherwise it consumes the body
// and returns a *types.UpstreamError carrying the provider's text. The caller
// still owns closing resp.Body.
func CheckStatus(resp *http.Response, source string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &types.UpstreamError{
		Source:     source,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(data)),
	}
}
