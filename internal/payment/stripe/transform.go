package stripe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"shopbridge/internal/payment"

	"go.uber.org/zap"
)

// RawResponse is an HTTP answer before it is trusted.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

var ErrUntrustedResponse = errors.New("stripe: untrusted response")

// Transform normalizes a processor response. Only the content type header
// survives; bodies that are not a JSON object are rejected before decoding.
func Transform(in RawResponse) (RawResponse, error) {
	ct := in.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || mediaType != "application/json" {
		return RawResponse{}, fmt.Errorf("%w: content type %q", ErrUntrustedResponse, ct)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(in.Body, &obj); err != nil {
		return RawResponse{}, fmt.Errorf("%w: %v", ErrUntrustedResponse, err)
	}
	out := RawResponse{
		StatusCode: in.StatusCode,
		Header:     http.Header{"Content-Type": []string{mediaType}},
		Body:       append([]byte(nil), in.Body...),
	}
	return out, nil
}

// transformTransport runs Transform on every response before the SDK sees
// it. A rejected 429 or 5xx answer surfaces as a retryable payment.Error.
type transformTransport struct {
	next   http.RoundTripper
	logger *zap.Logger
}

func newTransformTransport(next http.RoundTripper, logger *zap.Logger) *transformTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &transformTransport{next: next, logger: logger}
}

func (t *transformTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	raw, err := Transform(RawResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: body})
	if err != nil {
		t.logger.Warn("rejected response",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, &payment.Error{StatusCode: resp.StatusCode, Message: err.Error()}
		}
		return nil, err
	}

	resp.StatusCode = raw.StatusCode
	resp.Header = raw.Header
	resp.Body = io.NopCloser(bytes.NewReader(raw.Body))
	resp.ContentLength = int64(len(raw.Body))
	return resp, nil
}
