// Package operation defines the closed set of GitHub operations the chat
// surface can perform: their descriptors, argument binding and typed invokers.
package operation

import (
	"fmt"
	"regexp"
)

// ParamType is the primitive type of an operation parameter.
type ParamType string

const (
	// TypeString is a JSON string parameter.
	TypeString ParamType = "string"
	// TypeBoolean is a JSON boolean parameter.
	TypeBoolean ParamType = "boolean"
	// TypeInteger is a JSON integer parameter.
	TypeInteger ParamType = "integer"
)

var paramNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Param describes a single operation parameter.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required"`
	Enum        []string  `json:"enum,omitempty"`
	Default     any       `json:"default,omitempty"`
}

// Descriptor is the immutable signature of an operation as offered to the
// intent resolver.
type Descriptor struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"parameters,omitempty"`
}

// Required returns the names of required parameters in declaration order.
func (d Descriptor) Required() []string {
	var names []string
	for _, p := range d.Params {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Param returns the parameter with the given name.
func (d Descriptor) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Validate checks the descriptor is well formed.
func (d Descriptor) Validate() error {
	if !paramNamePattern.MatchString(d.Name) {
		return fmt.Errorf("operation name %q is invalid", d.Name)
	}
	if d.Description == "" {
		return fmt.Errorf("operation %s: description cannot be empty", d.Name)
	}
	seen := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		if !paramNamePattern.MatchString(p.Name) {
			return fmt.Errorf("operation %s: parameter name %q is invalid", d.Name, p.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("operation %s: duplicate parameter %q", d.Name, p.Name)
		}
		seen[p.Name] = true

		switch p.Type {
		case TypeString, TypeBoolean, TypeInteger:
		default:
			return fmt.Errorf("operation %s: parameter %s has unknown type %q", d.Name, p.Name, p.Type)
		}
		if len(p.Enum) > 0 && p.Type != TypeString {
			return fmt.Errorf("operation %s: enum on non-string parameter %s", d.Name, p.Name)
		}
		if p.Required && p.Default != nil {
			return fmt.Errorf("operation %s: required parameter %s cannot declare a default", d.Name, p.Name)
		}
		if p.Default != nil {
			if _, err := coerce(p, p.Default); err != nil {
				return fmt.Errorf("operation %s: default for %s: %w", d.Name, p.Name, err)
			}
		}
	}
	return nil
}

func requiredString(name, description string) Param {
	return Param{Name: name, Type: TypeString, Description: description, Required: true}
}

func optionalString(name, description string, def string, enum ...string) Param {
	return Param{Name: name, Type: TypeString, Description: description, Default: def, Enum: enum}
}

func optionalBool(name, description string, def bool) Param {
	return Param{Name: name, Type: TypeBoolean, Description: description, Default: def}
}

func requiredInt(name, description string) Param {
	return Param{Name: name, Type: TypeInteger, Description: description, Required: true}
}
