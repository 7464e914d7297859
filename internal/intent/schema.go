package intent

import (
	genai "github.com/google/generative-ai-go/genai"

	"github.com/ashureev/repochat/internal/operation"
)

// jsonSchema renders a descriptor's parameters as a JSON-schema object.
func jsonSchema(d operation.Descriptor) map[string]any {
	props := make(map[string]any, len(d.Params))
	for _, p := range d.Params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[p.Name] = prop
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if req := d.Required(); len(req) > 0 {
		schema["required"] = req
	}
	return schema
}

var geminiTypes = map[operation.ParamType]genai.Type{
	operation.TypeString:  genai.TypeString,
	operation.TypeBoolean: genai.TypeBoolean,
	operation.TypeInteger: genai.TypeInteger,
}

// geminiSchema returns nil for operations without parameters; Gemini rejects
// object schemas with no properties.
func geminiSchema(d operation.Descriptor) *genai.Schema {
	if len(d.Params) == 0 {
		return nil
	}
	props := make(map[string]*genai.Schema, len(d.Params))
	for _, p := range d.Params {
		props[p.Name] = &genai.Schema{
			Type:        geminiTypes[p.Type],
			Description: p.Description,
			Enum:        p.Enum,
		}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   d.Required(),
	}
}

func geminiTool(catalog []operation.Descriptor) *genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(catalog))
	for _, d := range catalog {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  geminiSchema(d),
		})
	}
	return &genai.Tool{FunctionDeclarations: decls}
}
