package controller

import (
	"errors"

	"golf-concierge-be/internal/pkg/serverutils"
	"golf-concierge-be/internal/service"
	"golf-concierge-be/pkg/quiz"

	"github.com/gofiber/fiber/v2"
)

// IQuizController exposes the quiz engine with the wire format the remote
// quiz client speaks, so this service can stand in for it.
type IQuizController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Answer(ctx *fiber.Ctx) error
	Question(ctx *fiber.Ctx) error
}

type quizController struct {
	quizService service.IQuizService
}

func NewQuizController(quizService service.IQuizService) IQuizController {
	return &quizController{quizService: quizService}
}

func (c *quizController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/quiz")
	h.Post("/start", c.Start)
	h.Post("/answer", c.Answer)
	h.Get("/question/:id", c.Question)
}

func (c *quizController) Start(ctx *fiber.Ctx) error {
	var req quiz.StartRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	res, err := c.quizService.Start(ctx.UserContext(), req)
	if err != nil {
		return quizError(err)
	}
	return ctx.JSON(res)
}

func (c *quizController) Answer(ctx *fiber.Ctx) error {
	var req quiz.AnswerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.quizService.SubmitAnswer(ctx.UserContext(), req)
	if err != nil {
		return quizError(err)
	}
	return ctx.JSON(res)
}

func (c *quizController) Question(ctx *fiber.Ctx) error {
	q, err := c.quizService.Question(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return quizError(err)
	}
	return ctx.JSON(q)
}

func quizError(err error) error {
	switch {
	case errors.Is(err, quiz.ErrUnknownSession), errors.Is(err, quiz.ErrUnknownQuestion):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, quiz.ErrInvalidOption), errors.Is(err, quiz.ErrAlreadyAnswered):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	default:
		return err
	}
}
