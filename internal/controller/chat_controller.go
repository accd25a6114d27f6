package controller

import (
	"errors"

	"golf-concierge-be/internal/dto"
	"golf-concierge-be/internal/pkg/serverutils"
	"golf-concierge-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
	cookieName  string
}

func NewChatController(chatService service.IChatService, cookieName string) IChatController {
	return &chatController{
		chatService: chatService,
		cookieName:  cookieName,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat")
	h.Use(serverutils.SessionMiddleware(c.cookieName))
	h.Post("", c.Chat)
	h.Post("/reset", c.Reset)
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Chat(ctx.UserContext(), &req)
	if err != nil {
		return sessionError(err)
	}

	return ctx.JSON(res)
}

func (c *chatController) Reset(ctx *fiber.Ctx) error {
	if err := c.chatService.Reset(ctx.UserContext()); err != nil {
		return sessionError(err)
	}
	return ctx.JSON(dto.ResetResponse{Reset: true})
}

func sessionError(err error) error {
	if errors.Is(err, service.ErrMissingSession) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}
