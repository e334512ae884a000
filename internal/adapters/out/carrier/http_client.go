package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"fulfillment/internal/core/ports"
)

// doJSON performs one JSON request against a carrier API and decodes the
// response body into out. Failures are classified for the job pipeline:
// transport errors, timeouts, 408, 429, and 5xx are retryable; any other
// non-2xx status is terminal.
func doJSON(
	ctx context.Context,
	client *http.Client,
	op, carrierCode, method, url, apiKey, correlationID string,
	body, out any,
) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("X-Correlation-Id", correlationID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return ports.NewRetryableIntegrationError(op, carrierCode, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		cause := fmt.Errorf("unexpected status %s", resp.Status)
		if isRetryableStatus(resp.StatusCode) {
			return ports.NewRetryableIntegrationError(op, carrierCode, resp.StatusCode, cause)
		}
		return ports.NewTerminalIntegrationError(op, carrierCode, resp.StatusCode, cause)
	}

	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return ports.NewTerminalIntegrationError(op, carrierCode, resp.StatusCode, err)
	}
	return nil
}

func isRetryableStatus(status int) bool {
	return status == http.StatusRequestTimeout ||
		status == http.StatusTooManyRequests ||
		status >= 500
}
