package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/agentstation/launchsync/pkg/errors"
	"github.com/agentstation/launchsync/pkg/logging"
)

// maxErrorBody bounds how much of an error response is kept in the message.
const maxErrorBody = 512

// DecodeResponse decodes a JSON response into target. Non-200 responses
// become *errors.APIError tagged with source; malformed JSON becomes a
// *errors.ParseError.
func DecodeResponse(resp *http.Response, source string, target any) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn().Err(err).Str("source", source).Msg("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		apiErr := errors.NewAPIError(source, resp.StatusCode, msg)
		if resp.Request != nil && resp.Request.URL != nil {
			apiErr.Endpoint = resp.Request.URL.Path
		}
		return apiErr
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", source+" response", err)
	}

	return nil
}
