package handler

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/artify/api/internal/inference"
	"github.com/artify/api/internal/logging"
	"github.com/artify/api/internal/model"
	"github.com/artify/api/internal/service"
	"github.com/artify/api/pkg/response"
)

// NewValidator returns a validator that reports JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

var failureMessages = map[model.Capability]string{
	model.CapabilityImage:   "Image generation failed, please try again",
	model.CapabilityVideo:   "Video generation failed, please try again",
	model.CapabilityStyle:   "Style transfer failed, please try again",
	model.CapabilityUpscale: "Image enhancement failed, please try again",
}

// respondError maps service and upstream errors to the public error envelope.
// Upstream detail is logged, never returned.
func respondError(c *fiber.Ctx, capability model.Capability, err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return response.ValidationError(c, ve.Message, map[string]string{ve.Field: "invalid"})
	}

	logger := logging.WithComponent("handler")
	logger.Error().
		Err(err).
		Str("capability", string(capability)).
		Str("path", c.Path()).
		Msg("request failed")

	var ce *service.ConfigError
	if errors.As(err, &ce) {
		return response.NotConfigured(c, ce.Error())
	}

	kind := inference.KindOf(err)
	switch kind {
	case inference.ErrRateLimited:
		return response.RateLimited(c)
	case inference.ErrQuotaExhausted:
		return response.QuotaExhausted(c)
	}

	reason := string(kind)
	if reason == "" {
		reason = "internal"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
	}
	return response.GenerationFailed(c, failureMessages[capability], fiber.Map{"reason": reason})
}

// bindAndValidate parses the JSON body into req and runs struct validation.
// On failure the error response has already been written and ok is false.
func bindAndValidate(c *fiber.Ctx, v *validator.Validate, req interface{}) (ok bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, response.ValidationError(c, "Invalid request body", nil)
	}
	if err := v.Struct(req); err != nil {
		msg, details := formatValidationErrors(err)
		return false, response.ValidationError(c, msg, details)
	}
	return true, nil
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) (string, map[string]string) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "Validation failed", nil
	}

	details := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		details[e.Field()] = e.Tag()
	}

	first := validationErrors[0]
	field := first.Field()
	label := strings.ToUpper(field[:1]) + field[1:]

	var msg string
	switch first.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", label)
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", field, first.Param())
	case "min":
		msg = fmt.Sprintf("%s must be at least %s", field, first.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s", field, first.Param())
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return msg, details
}
