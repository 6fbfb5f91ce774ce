package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ActorHeader names the caller recorded in created_by / updated_by columns.
const ActorHeader = "X-Actor"

const (
	actorKey      = "actor"
	defaultActor  = "system"
	maxActorBytes = 255
)

// Actor stores the caller name from ActorHeader in the request locals.
func Actor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := strings.TrimSpace(c.Get(ActorHeader))
		if len(actor) > maxActorBytes {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": ActorHeader + " is longer than 255 bytes",
				"code":  "INVALID_INPUT",
			})
		}
		if actor == "" {
			actor = defaultActor
		}
		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// GetActor returns the name set by Actor, or "system" outside it.
func GetActor(c *fiber.Ctx) string {
	if actor, ok := c.Locals(actorKey).(string); ok {
		return actor
	}
	return defaultActor
}
