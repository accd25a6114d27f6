package controller

import (
	"golf-concierge-be/internal/dto"
	"golf-concierge-be/internal/pkg/serverutils"
	"golf-concierge-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISidecarController interface {
	RegisterRoutes(r fiber.Router)
	Render(ctx *fiber.Ctx) error
}

type sidecarController struct {
	sidecarService service.ISidecarService
}

func NewSidecarController(sidecarService service.ISidecarService) ISidecarController {
	return &sidecarController{sidecarService: sidecarService}
}

func (c *sidecarController) RegisterRoutes(r fiber.Router) {
	r.Get("/sidecar", c.Render)
	r.Post("/sidecar", c.Render)
}

// Render accepts the query as ?q= or as a JSON body {"query": "..."}.
func (c *sidecarController) Render(ctx *fiber.Ctx) error {
	var req dto.SidecarRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query")
	}
	if ctx.Method() == fiber.MethodPost && len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return ctx.JSON(c.sidecarService.Render(ctx.UserContext(), &req))
}
