package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/aristath/chartlens/internal/domain"
	"github.com/go-playground/validator/v10"
)

var (
	leadingFence  = regexp.MustCompile("(?i)^\\s*```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```\\s*$")
)

// StripCodeFences removes one optional markdown fence around a model reply.
func StripCodeFences(raw string) string {
	cleaned := leadingFence.ReplaceAllString(raw, "")
	cleaned = trailingFence.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// Normalizer turns raw model text into a validated AnalysisResult.
// It is safe for concurrent use.
type Normalizer struct {
	validate *validator.Validate
}

// NewNormalizer creates a normalizer that reports fields by their JSON names.
func NewNormalizer() *Normalizer {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Normalizer{validate: v}
}

var defaultNormalizer = NewNormalizer()

// Normalize parses raw with the package default normalizer.
func Normalize(raw string) (*domain.AnalysisResult, error) {
	return defaultNormalizer.Normalize(raw)
}

// Normalize strips fences, parses JSON and validates the result shape.
// Non-JSON input yields *ParseError; JSON of the wrong shape yields *SchemaError.
func (n *Normalizer) Normalize(raw string) (*domain.AnalysisResult, error) {
	cleaned := StripCodeFences(raw)
	data := []byte(cleaned)

	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	obj, ok := generic.(map[string]interface{})
	if !ok {
		return nil, &SchemaError{Raw: raw, Fields: []string{"response must be a JSON object"}}
	}

	var problems []string
	for _, field := range domain.RequiredFields {
		if v, present := obj[field]; !present || v == nil {
			problems = append(problems, field+": is required")
		}
	}
	if len(problems) > 0 {
		return nil, &SchemaError{Raw: raw, Fields: problems}
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &SchemaError{Raw: raw, Fields: []string{decodeProblem(err)}}
	}

	if err := n.validate.Struct(&result); err != nil {
		return nil, &SchemaError{Raw: raw, Fields: validationProblems(err)}
	}

	result.Normalize()
	return &result, nil
}

func decodeProblem(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s: expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
	}
	return err.Error()
}

func validationProblems(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		problems = append(problems, fmt.Sprintf("%s: failed %s", field, rule))
	}
	return problems
}
