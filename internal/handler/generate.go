package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/artify/api/internal/model"
	"github.com/artify/api/internal/service"
	"github.com/artify/api/pkg/response"
)

type GenerateHandler struct {
	images    *service.ImageService
	videos    *service.VideoService
	validator *validator.Validate
}

func NewGenerateHandler(images *service.ImageService, videos *service.VideoService, v *validator.Validate) *GenerateHandler {
	return &GenerateHandler{
		images:    images,
		videos:    videos,
		validator: v,
	}
}

// Image handles POST /functions/v1/generate-image
// @Summary      Generate image
// @Description  Generate an image with FLUX (default, retried while the model loads) or Gemini
// @Tags         Generate
// @Accept       json
// @Produce      json
// @Param        request body model.ImageGenerateRequest true "Generate request"
// @Success      200 {object} model.ImageGenerateResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      402 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /functions/v1/generate-image [post]
func (h *GenerateHandler) Image(c *fiber.Ctx) error {
	var req model.ImageGenerateRequest
	if ok, err := bindAndValidate(c, h.validator, &req); !ok {
		return err
	}

	result, err := h.images.Generate(c.Context(), &req)
	if err != nil {
		return respondError(c, model.CapabilityImage, err)
	}

	return response.OK(c, result)
}

// Video handles POST /functions/v1/generate-video
// @Summary      Generate video
// @Description  Generate a short text-to-video clip, retried while the model loads
// @Tags         Generate
// @Accept       json
// @Produce      json
// @Param        request body model.VideoGenerateRequest true "Generate request"
// @Success      200 {object} model.VideoGenerateResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      402 {object} response.ErrorResponse
// @Failure      429 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /functions/v1/generate-video [post]
func (h *GenerateHandler) Video(c *fiber.Ctx) error {
	var req model.VideoGenerateRequest
	if ok, err := bindAndValidate(c, h.validator, &req); !ok {
		return err
	}

	result, err := h.videos.Generate(c.Context(), &req)
	if err != nil {
		return respondError(c, model.CapabilityVideo, err)
	}

	return response.OK(c, result)
}
