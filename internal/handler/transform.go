package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/artify/api/internal/model"
	"github.com/artify/api/internal/service"
	"github.com/artify/api/pkg/response"
)

type TransformHandler struct {
	styles    *service.StyleService
	upscaler  *service.UpscaleService
	validator *validator.Validate
}

func NewTransformHandler(styles *service.StyleService, upscaler *service.UpscaleService, v *validator.Validate) *TransformHandler {
	return &TransformHandler{
		styles:    styles,
		upscaler:  upscaler,
		validator: v,
	}
}

// StyleTransfer handles POST /functions/v1/style-transfer
// @Summary      Style transfer
// @Description  Repaint an uploaded image in one of the catalog styles or a custom instruction
// @Tags         Transform
// @Accept       json
// @Produce      json
// @Param        request body model.StyleTransferRequest true "Style transfer request"
// @Success      200 {object} model.StyleTransferResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      402 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /functions/v1/style-transfer [post]
func (h *TransformHandler) StyleTransfer(c *fiber.Ctx) error {
	var req model.StyleTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		_, details := formatValidationErrors(err)
		return response.ValidationError(c, "Image and style are required", details)
	}

	result, err := h.styles.Transfer(c.Context(), &req)
	if err != nil {
		return respondError(c, model.CapabilityStyle, err)
	}

	return response.OK(c, result)
}

// Styles handles GET /functions/v1/style-transfer/styles
// @Summary      List styles
// @Tags         Transform
// @Produce      json
// @Success      200 {object} model.StyleListResponse
// @Router       /functions/v1/style-transfer/styles [get]
func (h *TransformHandler) Styles(c *fiber.Ctx) error {
	return response.OK(c, model.StyleListResponse{Styles: h.styles.ListStyles()})
}

// Upscale handles POST /functions/v1/upscale-image
// @Summary      Upscale image
// @Description  Enhance a base64 data URL image by the requested factor
// @Tags         Transform
// @Accept       json
// @Produce      json
// @Param        request body model.UpscaleRequest true "Upscale request"
// @Success      200 {object} model.UpscaleResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      402 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /functions/v1/upscale-image [post]
func (h *TransformHandler) Upscale(c *fiber.Ctx) error {
	var req model.UpscaleRequest
	if ok, err := bindAndValidate(c, h.validator, &req); !ok {
		return err
	}

	result, err := h.upscaler.Upscale(c.Context(), &req)
	if err != nil {
		return respondError(c, model.CapabilityUpscale, err)
	}

	return response.OK(c, result)
}
