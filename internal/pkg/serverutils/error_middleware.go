package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into JSON bodies.
// Unknown errors become a 500 without leaking their text.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return ctx.Status(fe.Code).JSON(ErrorResponse(fe.Code, fe.Message))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "internal server error"))
	}
}
