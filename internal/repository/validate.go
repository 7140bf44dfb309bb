package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
)

// payloadSchemas holds the minimal shape every stored payload must have.
var payloadSchemas = map[constants.Category]string{
	constants.COR: `{
		"type": "object",
		"required": ["schedule_id", "program_info", "schedule"],
		"properties": {
			"schedule_id": {"type": "string", "minLength": 1},
			"program_info": {
				"type": "object",
				"required": ["program"],
				"properties": {"program": {"type": "string", "minLength": 1}}
			},
			"schedule": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"required": ["subject_code", "time_start", "time_end"],
					"properties": {"subject_code": {"type": "string", "minLength": 1}}
				}
			}
		}
	}`,
	constants.Grades: `{
		"type": "object",
		"required": ["student_id", "grades"],
		"properties": {
			"student_id": {"type": "string", "minLength": 1},
			"gwa": {"type": "string", "pattern": "^$|^[1-5]\\.\\d{2}$"},
			"grades": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"required": ["subject_code", "subject_description", "units", "equivalent", "remarks"]
				}
			}
		}
	}`,
	constants.StudentsData: `{
		"type": "object",
		"required": ["students"],
		"properties": {
			"students": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"required": ["student_id", "department"],
					"properties": {"student_id": {"type": "string", "minLength": 1}}
				}
			}
		}
	}`,
	constants.TeachingFaculty:    staffSchema,
	constants.NonTeachingFaculty: staffSchema,
	constants.Admin:              staffSchema,
	constants.FacultySchedule: `{
		"type": "object",
		"required": ["faculty_name", "loads"],
		"properties": {
			"faculty_name": {"type": "string", "minLength": 1},
			"loads": {"type": "array", "minItems": 1}
		}
	}`,
	constants.Curriculum: `{
		"type": "object",
		"required": ["program", "courses"],
		"properties": {
			"program": {"type": "string", "minLength": 1},
			"courses": {
				"type": "array",
				"minItems": 1,
				"items": {"type": "object", "required": ["course_code"]}
			}
		}
	}`,
	constants.GeneralInfo: `{
		"type": "object",
		"required": ["sections"],
		"properties": {
			"sections": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"required": ["info_type", "content"],
					"properties": {"content": {"type": "string", "minLength": 1}}
				}
			}
		}
	}`,
}

const staffSchema = `{
	"type": "object",
	"required": ["full_name", "staff_type"],
	"properties": {
		"full_name": {"type": "string", "minLength": 1},
		"email": {"type": "string"}
	}
}`

var (
	compileOnce sync.Once
	compiled    map[constants.Category]*jsonschema.Schema
	compileErr  error
)

func compileSchemas() {
	compiled = make(map[constants.Category]*jsonschema.Schema, len(payloadSchemas))
	compiler := jsonschema.NewCompiler()
	for cat, src := range payloadSchemas {
		url := string(cat) + ".json"
		if err := compiler.AddResource(url, strings.NewReader(src)); err != nil {
			compileErr = fmt.Errorf("add schema %s: %w", cat, err)
			return
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			compileErr = fmt.Errorf("compile schema %s: %w", cat, err)
			return
		}
		compiled[cat] = schema
	}
}

// ValidatePayload checks data against the schema of category.
func ValidatePayload(category constants.Category, data []byte) error {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return fmt.Errorf("%w: %v", common.ErrInternal, compileErr)
	}
	schema, ok := compiled[category]
	if !ok {
		return fmt.Errorf("%w: %q", common.ErrUnknownCategory, category)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: unmarshal payload: %v", common.ErrValidation, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: payload does not match %s schema: %v", common.ErrValidation, category, err)
	}
	return nil
}
