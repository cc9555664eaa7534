package mqtingestor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

var ErrMalformedPayload = errors.New("malformed payload")

// readingSchema accepts {"value": <number>, "unit": <string>}; unit may be omitted
var readingSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"properties": {
		"value": {"type": "number"},
		"unit":  {"type": "string"}
	},
	"required": ["value"]
}`)

type readingPayload struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

func decodePayload(raw []byte) (readingPayload, error) {
	var p readingPayload

	result, err := gojsonschema.Validate(readingSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return p, fmt.Errorf("%w: %s", ErrMalformedPayload, strings.Join(msgs, "; "))
	}

	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return p, nil
}
