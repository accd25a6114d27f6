package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"golf-concierge-be/pkg/store"
)

// SessionMiddleware makes sure every request carries a session cookie and
// exposes its value through store.SessionIDFrom(ctx.UserContext()).
func SessionMiddleware(cookieName string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		sid := ctx.Cookies(cookieName)
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			ctx.Cookie(&fiber.Cookie{
				Name:     cookieName,
				Value:    sid,
				Path:     "/",
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}

		ctx.Locals("session_id", sid)
		ctx.SetUserContext(store.WithSessionID(ctx.UserContext(), sid))
		return ctx.Next()
	}
}
