package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/okian/udrf/internal/domain/apperr"
	"github.com/okian/udrf/internal/domain/review"
)

const maxBodyBytes = 1 << 20

// saveSchema describes the body of the review save, lock, unlock and admin
// update endpoints. Scores are checked further by the review service.
const saveSchema = `{
  "type": "object",
  "required": ["deptId", "academicYear"],
  "additionalProperties": false,
  "properties": {
    "deptId": {"type": "string", "minLength": 1},
    "academicYear": {"type": "string", "minLength": 1},
    "expertId": {"type": "string"},
    "expertScoresBySection": {
      "type": "array",
      "maxItems": 5,
      "items": {"type": ["number", "null"]}
    },
    "itemOverrides": {"type": "object", "additionalProperties": {"type": "number"}},
    "narrativeOverrides": {"type": "object", "additionalProperties": {"type": "number"}},
    "notes": {"type": ["string", "null"]},
    "action": {"type": "string"},
    "lock": {"type": "boolean"},
    "unlock": {"type": "boolean"}
  }
}`

func mustSaveSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("save.json", bytes.NewReader([]byte(saveSchema))); err != nil {
		panic(fmt.Sprintf("add schema: %v", err))
	}
	return compiler.MustCompile("save.json")
}

// saveBody is a validated save payload. ExpertID is only honoured on the
// administrative path.
type saveBody struct {
	review.SaveRequest
	ExpertID string `json:"expertId,omitempty"`
}

// decodeSave reads the body, validates it against schema and decodes it.
func decodeSave(r *http.Request, schema *jsonschema.Schema) (saveBody, error) {
	const op = "api.decode_save"
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return saveBody{}, apperr.WrapKind(op, ErrBadRequest, err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return saveBody{}, apperr.NewKind(op, ErrBadRequest, "malformed JSON body")
	}
	if err := schema.Validate(v); err != nil {
		return saveBody{}, apperr.Newf(op, ErrBadRequest, "body does not match schema: %v", err)
	}
	var body saveBody
	if err := json.Unmarshal(data, &body); err != nil {
		return saveBody{}, apperr.WrapKind(op, ErrBadRequest, err)
	}
	return body, nil
}
