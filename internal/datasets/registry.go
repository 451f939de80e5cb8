package datasets

import (
	"fmt"
	"sort"
	"strings"
)

// Dataset tags form a closed set; the tag selects both the field list and the
// suffix of the upstream prediction endpoint.
const (
	China      = "china"
	Desharnais = "desharnais"
	Albrecht   = "albrecht"
	Cocomo     = "cocomo"
)

// Field describes one numeric input of a dataset.
type Field struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Definition is the declarative description of one estimation dataset.
type Definition struct {
	Tag    string  `json:"tag"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

var registry = map[string]Definition{
	China: {
		Tag:   China,
		Title: "China",
		Fields: []Field{
			{Name: "AFP", Label: "Adjusted Function Points"},
			{Name: "Input", Label: "Input Count"},
			{Name: "Output", Label: "Output Count"},
			{Name: "Enquiry", Label: "Enquiry Count"},
			{Name: "File", Label: "File Count"},
			{Name: "Interface", Label: "Interface Count"},
			{Name: "Resource", Label: "Resource Level"},
			{Name: "Duration", Label: "Duration (months)"},
		},
	},
	Desharnais: {
		Tag:   Desharnais,
		Title: "Desharnais",
		Fields: []Field{
			{Name: "TeamExp", Label: "Team Experience (years)"},
			{Name: "ManagerExp", Label: "Manager Experience (years)"},
			{Name: "Length", Label: "Project Length (months)"},
			{Name: "Transactions", Label: "Transaction Count"},
			{Name: "Entities", Label: "Entity Count"},
			{Name: "PointsNonAjust", Label: "Unadjusted Function Points"},
			{Name: "PointsAdjust", Label: "Adjusted Function Points"},
		},
	},
	Albrecht: {
		Tag:   Albrecht,
		Title: "Albrecht",
		Fields: []Field{
			{Name: "Input", Label: "Input Count"},
			{Name: "Output", Label: "Output Count"},
			{Name: "Inquiry", Label: "Inquiry Count"},
			{Name: "File", Label: "File Count"},
			{Name: "AdjFP", Label: "Adjusted Function Points"},
		},
	},
	Cocomo: {
		Tag:   Cocomo,
		Title: "COCOMO",
		Fields: []Field{
			{Name: "acap", Label: "Analyst Capability"},
			{Name: "aexp", Label: "Application Experience"},
			{Name: "pcap", Label: "Programmer Capability"},
			{Name: "vexp", Label: "Virtual Machine Experience"},
			{Name: "lexp", Label: "Language Experience"},
			{Name: "modp", Label: "Modern Programming Practices"},
			{Name: "tool", Label: "Use of Software Tools"},
			{Name: "sced", Label: "Schedule Constraint"},
			{Name: "loc", Label: "Lines of Code (KLOC)"},
		},
	},
}

// Tags returns the supported dataset tags in a stable order.
func Tags() []string {
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	return tags
}

// All returns every dataset definition, ordered by tag.
func All() []Definition {
	definitions := make([]Definition, 0, len(registry))
	for _, tag := range Tags() {
		definitions = append(definitions, registry[tag])
	}

	return definitions
}

// Lookup resolves a dataset tag to its definition.
func Lookup(tag string) (Definition, bool) {
	definition, ok := registry[strings.ToLower(strings.TrimSpace(tag))]
	return definition, ok
}

// FieldError describes a single invalid input value.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates per-field input failures.
type ValidationError struct {
	Dataset string       `json:"dataset"`
	Fields  []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		messages = append(messages, fmt.Sprintf("%s: %s", field.Field, field.Message))
	}

	return fmt.Sprintf("invalid %s input: %s", e.Dataset, strings.Join(messages, "; "))
}

// Validate checks an input map against the dataset's field set. Every field
// must be present and non-negative; keys outside the field set are rejected so
// the upstream service receives exactly the expected shape.
func (d Definition) Validate(values map[string]float64) error {
	validationErr := &ValidationError{Dataset: d.Tag}

	known := make(map[string]bool, len(d.Fields))
	for _, field := range d.Fields {
		known[field.Name] = true

		value, ok := values[field.Name]
		if !ok {
			validationErr.Fields = append(validationErr.Fields, FieldError{
				Field:   field.Name,
				Message: "is required",
			})
			continue
		}

		if value < 0 {
			validationErr.Fields = append(validationErr.Fields, FieldError{
				Field:   field.Name,
				Message: "must be a non-negative number",
			})
		}
	}

	unknown := make([]string, 0)
	for key := range values {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		validationErr.Fields = append(validationErr.Fields, FieldError{
			Field:   key,
			Message: "is not a field of this dataset",
		})
	}

	if len(validationErr.Fields) > 0 {
		return validationErr
	}

	return nil
}
