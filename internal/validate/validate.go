// Package validate checks tool arguments before any network call.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/yolodolo42/plasma-mcp/internal/codec"
)

// ValidationError names the first offending field and the rule it broke.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Rule)
}

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		register(v, "evm_address", codec.IsAddress)
		register(v, "tx_hash", codec.IsTxHash)
		register(v, "decimal_amount", codec.IsDecimalAmount)
		register(v, "uint_string", codec.IsInteger)
		register(v, "hex_data", codec.IsHexData)
		instance = v
	})
	return instance
}

func register(v *validator.Validate, tag string, fn func(string) bool) {
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
}

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	err := engine().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Rule: describe(fe)}
	}
	return err
}

// Decode unmarshals JSON arguments into dst and validates the result.
// Empty input is treated as an empty object; fields already set on dst act
// as defaults.
func Decode(raw json.RawMessage, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, dst); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) && typeErr.Field != "" {
				return &ValidationError{Field: typeErr.Field, Rule: "must be " + kindName(typeErr.Type)}
			}
			return &ValidationError{Field: "arguments", Rule: "must be a JSON object"}
		}
	}
	return Struct(dst)
}

func kindName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Bool:
		return "a boolean"
	default:
		return "a " + t.Kind().String()
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "evm_address":
		return "must be an address (0x followed by 40 hex characters)"
	case "tx_hash":
		return "must be a transaction hash (0x followed by 64 hex characters)"
	case "decimal_amount":
		return "must be a non-negative decimal amount"
	case "uint_string":
		return "must be a non-negative integer"
	case "hex_data":
		return "must be 0x-prefixed hex bytes"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
