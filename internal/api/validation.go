package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one invalid input location.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError is returned when a request body does not describe a Query.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Details))
	for i, d := range e.Details {
		msgs[i] = strings.Join(d.Loc, ".") + ": " + d.Msg
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

type queryPayload struct {
	Text *string `json:"text" validate:"required,min=1"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// rawPayload keeps the text field undecoded so an absent field, an explicit
// null and a non-string value can be told apart.
type rawPayload struct {
	Text json.RawMessage `json:"text"`
}

// DecodeQuery reads a JSON body and validates it into a Query. Malformed JSON,
// trailing data after the object, a missing, null or empty text field, and a
// text field of the wrong type all yield a *ValidationError. Reader errors
// (e.g. an exceeded body limit) are returned unchanged.
func DecodeQuery(r io.Reader) (Query, error) {
	dec := json.NewDecoder(r)
	var payload rawPayload
	if err := dec.Decode(&payload); err != nil {
		return Query{}, decodeError(err)
	}
	if _, err := dec.Token(); err == nil {
		return Query{}, invalidJSON()
	} else if !errors.Is(err, io.EOF) {
		return Query{}, decodeError(err)
	}

	switch {
	case payload.Text == nil:
		return ValidateText(nil)
	case string(payload.Text) == "null":
		return Query{}, &ValidationError{Details: []FieldError{{
			Loc:  []string{"body", "text"},
			Msg:  "none is not an allowed value",
			Type: "type_error.none.not_allowed",
		}}}
	}
	var text string
	if err := json.Unmarshal(payload.Text, &text); err != nil {
		return Query{}, &ValidationError{Details: []FieldError{textTypeError()}}
	}
	return ValidateText(&text)
}

// ValidateText applies the query rules to a text value obtained some other
// way, such as extracted from an uploaded document.
func ValidateText(text *string) (Query, error) {
	payload := queryPayload{Text: text}
	if err := validate.Struct(&payload); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return Query{}, fromValidator(verrs)
		}
		return Query{}, err
	}
	return Query{Text: *payload.Text}, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		return &ValidationError{Details: []FieldError{{
			Loc:  []string{"body"},
			Msg:  "value is not a valid dict",
			Type: "type_error.dict",
		}}}
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return invalidJSON()
	default:
		return err
	}
}

func invalidJSON() *ValidationError {
	return &ValidationError{Details: []FieldError{{
		Loc:  []string{"body"},
		Msg:  "invalid JSON body",
		Type: "value_error.jsondecode",
	}}}
}

func textTypeError() FieldError {
	return FieldError{
		Loc:  []string{"body", "text"},
		Msg:  "str type expected",
		Type: "type_error.str",
	}
}

func fromValidator(verrs validator.ValidationErrors) *ValidationError {
	out := &ValidationError{Details: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		d := FieldError{Loc: []string{"body", fe.Field()}}
		switch fe.Tag() {
		case "required":
			d.Msg, d.Type = "field required", "value_error.missing"
		case "min":
			d.Msg = fmt.Sprintf("ensure this value has at least %s characters", fe.Param())
			d.Type = "value_error.any_str.min_length"
		default:
			d.Msg, d.Type = fmt.Sprintf("failed on the %q rule", fe.Tag()), "value_error"
		}
		out.Details = append(out.Details, d)
	}
	return out
}
