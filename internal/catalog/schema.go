package catalog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"quiz-session-engine/internal/domain"
)

type schemaName string

const (
	optionsSchema schemaName = "options"
	mapSchema     schemaName = "map"
)

var schemaSources = map[schemaName]string{
	optionsSchema: `{
		"type": "array",
		"minItems": 1,
		"items": {"type": "string"}
	}`,
	mapSchema: `{
		"type": "object",
		"required": ["target_region_id"],
		"properties": {
			"target_region_id": {"type": "string", "minLength": 1},
			"target_country": {"type": "string"},
			"map_type": {"type": "string"},
			"acceptable_regions": {"type": "array", "items": {"type": "string"}}
		}
	}`,
}

var (
	compileOnce sync.Once
	compiled    map[schemaName]*jsonschema.Schema
	compileErr  error
)

func compileSchemas() {
	c := jsonschema.NewCompiler()
	urls := make(map[schemaName]string, len(schemaSources))
	for name, src := range schemaSources {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
		if err != nil {
			compileErr = fmt.Errorf("parse %s schema: %w", name, err)
			return
		}
		url := fmt.Sprintf("schema://catalog/%s.json", name)
		if err := c.AddResource(url, doc); err != nil {
			compileErr = fmt.Errorf("add %s schema: %w", name, err)
			return
		}
		urls[name] = url
	}
	compiled = make(map[schemaName]*jsonschema.Schema, len(urls))
	for name, url := range urls {
		sch, err := c.Compile(url)
		if err != nil {
			compileErr = fmt.Errorf("compile %s schema: %w", name, err)
			return
		}
		compiled[name] = sch
	}
}

// validate checks the JSON text against the named payload schema.
func validate(name schemaName, text string) error {
	compileOnce.Do(compileSchemas)
	if compileErr != nil {
		return compileErr
	}
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if err := compiled[name].Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return nil
}
