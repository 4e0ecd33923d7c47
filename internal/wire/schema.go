package wire

import (
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// requestSchemaJSON describes the inbound ComputeRequest envelope (spec
// §4.7 / §6). detector_name is intentionally not `required`: its absence
// is a valid, well-formed request that dispatches to FAILED, not a
// decode error.
const requestSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["request_id", "content"],
	"properties": {
		"request_id": { "type": "string" },
		"content": { "type": "string" },
		"detector_name": { "type": "string" }
	}
}`

var (
	requestSchemaOnce sync.Once
	requestSchema     *jsonschema.Schema
	requestSchemaErr  error
)

func compiledRequestSchema() (*jsonschema.Schema, error) {
	requestSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("compute-request.json", strings.NewReader(requestSchemaJSON)); err != nil {
			requestSchemaErr = err
			return
		}
		requestSchema, requestSchemaErr = c.Compile("compute-request.json")
	})
	return requestSchema, requestSchemaErr
}
