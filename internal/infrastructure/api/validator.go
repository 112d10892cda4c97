package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// FormatValidationError turns validator failures into a field to message map
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		fields["error"] = "invalid request format"
		return fields
	}

	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			fields[field] = "this field is required"
		case "hostname", "fqdn":
			fields[field] = "must be a host name"
		case "gt":
			fields[field] = fmt.Sprintf("must be greater than %s", e.Param())
		default:
			fields[field] = "invalid value"
		}
	}
	return fields
}

// decodeAndValidate decodes a JSON body into req and validates it. When an error is returned the
// response has already been written.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return err
	}
	if err := validate.Struct(req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "invalid request",
			Kind:   "validation",
			Fields: FormatValidationError(err),
		})
		return err
	}
	return nil
}
