// Package wire defines the request/response wire schema and the codecs
// that translate it to and from the JSON bytes carried over the message
// broker.
package wire

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Status is the enum carried in a ComputeResponse.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// ComputeRequest is the inbound unit of work.
type ComputeRequest struct {
	RequestID    string
	Content      string
	DetectorName string
	// HasDetectorName distinguishes an absent detector_name field from
	// an explicitly empty one; both flow to FAILED, but the distinction
	// matters for diagnostics.
	HasDetectorName bool
}

// LabelScore is one entry of a successful verdict.
type LabelScore struct {
	Label       string
	Probability float64
}

// Verdict carries the per-label probability breakdown of a successful
// classification, ordered per the detector's Labels().
type Verdict struct {
	Labels []LabelScore
}

// ComputeResponse is the outbound result.
type ComputeResponse struct {
	RequestID string
	Status    Status
	Verdict   *Verdict // nil when Status == StatusFailed
}

// Failed builds the canonical FAILED envelope for requestID.
func Failed(requestID string) ComputeResponse {
	return ComputeResponse{RequestID: requestID, Status: StatusFailed, Verdict: nil}
}

type requestEnvelope struct {
	RequestID    string  `json:"request_id"`
	Content      string  `json:"content"`
	DetectorName *string `json:"detector_name"`
}

// DecodeRequest validates raw against the ComputeRequest JSON schema and
// unmarshals it. Unknown extra fields are ignored (no additionalProperties
// restriction in the schema), so older and newer senders stay compatible.
func DecodeRequest(raw []byte) (ComputeRequest, error) {
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return ComputeRequest{}, fmt.Errorf("wire: invalid JSON: %w", err)
	}

	schema, err := compiledRequestSchema()
	if err != nil {
		return ComputeRequest{}, fmt.Errorf("wire: compile schema: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return ComputeRequest{}, fmt.Errorf("wire: schema validation: %w", err)
	}

	var env requestEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ComputeRequest{}, fmt.Errorf("wire: unmarshal: %w", err)
	}

	req := ComputeRequest{RequestID: env.RequestID, Content: env.Content}
	if env.DetectorName != nil {
		req.DetectorName = *env.DetectorName
		req.HasDetectorName = true
	}
	return req, nil
}

// BestEffortRequestID attempts to recover a request_id from a message
// that failed schema validation or isn't valid JSON at all, so a FAILED
// response can still be correlated to its request. Returns "" when
// nothing usable can be found.
func BestEffortRequestID(raw []byte) string {
	var probe struct {
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.RequestID
}

type labelScoreEnvelope struct {
	Label       string          `json:"label"`
	Probability json.RawMessage `json:"probability"`
}

type verdictEnvelope struct {
	Labels []labelScoreEnvelope `json:"labels"`
}

type responseEnvelope struct {
	RequestID string           `json:"request_id"`
	Status    Status           `json:"status"`
	Verdict   *verdictEnvelope `json:"verdict"`
}

// EncodeResponse serializes resp. Probabilities are written as plain
// decimals (no scientific notation), never as Go's default float
// formatting which may switch to exponent form for small values.
func EncodeResponse(resp ComputeResponse) ([]byte, error) {
	env := responseEnvelope{RequestID: resp.RequestID, Status: resp.Status}
	if resp.Verdict != nil {
		labels := make([]labelScoreEnvelope, len(resp.Verdict.Labels))
		for i, ls := range resp.Verdict.Labels {
			labels[i] = labelScoreEnvelope{
				Label:       ls.Label,
				Probability: json.RawMessage(formatPlainDecimal(ls.Probability)),
			}
		}
		env.Verdict = &verdictEnvelope{Labels: labels}
	}
	return json.Marshal(env)
}

// formatPlainDecimal renders f as JSON number text without scientific
// notation.
func formatPlainDecimal(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
