package ai

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// envelopeTransport rewrites a 200 response that carries an error object and no
// choices into a 502, so go-openai surfaces the upstream message as an APIError.
type envelopeTransport struct {
	base http.RoundTripper
}

type errorEnvelope struct {
	Choices json.RawMessage `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (t *envelopeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		return resp, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	var env errorEnvelope
	if json.Unmarshal(body, &env) != nil || env.Error == nil || env.Error.Message == "" {
		return resp, nil
	}
	if len(env.Choices) > 0 && string(env.Choices) != "null" && string(env.Choices) != "[]" {
		return resp, nil
	}

	resp.StatusCode = http.StatusBadGateway
	resp.Status = "502 Bad Gateway"
	return resp, nil
}
