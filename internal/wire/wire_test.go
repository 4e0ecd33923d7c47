package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequestHappyPath(t *testing.T) {
	raw := []byte(`{"request_id":"r1","content":"hello","detector_name":"mock"}`)
	req, err := DecodeRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, "r1", req.RequestID)
	assert.Equal(t, "hello", req.Content)
	assert.True(t, req.HasDetectorName)
	assert.Equal(t, "mock", req.DetectorName)
}

func TestDecodeRequestMissingDetectorName(t *testing.T) {
	raw := []byte(`{"request_id":"r1","content":"hello"}`)
	req, err := DecodeRequest(raw)
	require.NoError(t, err)
	assert.False(t, req.HasDetectorName)
	assert.Empty(t, req.DetectorName)
}

func TestDecodeRequestMissingRequiredField(t *testing.T) {
	raw := []byte(`{"content":"hello"}`)
	_, err := DecodeRequest(raw)
	assert.Error(t, err)
}

func TestDecodeRequestInvalidJSON(t *testing.T) {
	_, err := DecodeRequest([]byte(`{not json`))
	assert.Error(t, err)
}

func TestBestEffortRequestIDRecoversFromPartialJSON(t *testing.T) {
	raw := []byte(`{"request_id":"r9","content":123}`)
	assert.Equal(t, "r9", BestEffortRequestID(raw))
}

func TestBestEffortRequestIDEmptyOnGarbage(t *testing.T) {
	assert.Equal(t, "", BestEffortRequestID([]byte(`not json at all`)))
}

func TestEncodeResponseSuccess(t *testing.T) {
	resp := ComputeResponse{
		RequestID: "r1",
		Status:    StatusSuccess,
		Verdict: &Verdict{Labels: []LabelScore{
			{Label: "Human", Probability: 0.5},
			{Label: "AI", Probability: 0.5},
		}},
	}
	encoded, err := EncodeResponse(resp)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, "r1", decoded["request_id"])
	assert.Equal(t, "SUCCESS", decoded["status"])
	assert.NotContains(t, string(encoded), "e+")
	assert.NotContains(t, string(encoded), "e-")
}

func TestEncodeResponseFailed(t *testing.T) {
	resp := Failed("r2")
	encoded, err := EncodeResponse(resp)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, "FAILED", decoded["status"])
	assert.Nil(t, decoded["verdict"])
}

func TestFormatPlainDecimalAvoidsScientificNotation(t *testing.T) {
	assert.Equal(t, "0.0000001", formatPlainDecimal(0.0000001))
	assert.Equal(t, "1", formatPlainDecimal(1.0))
}
