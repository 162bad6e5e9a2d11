package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-card/internal/card"
	"github.com/i474232898/weather-card/internal/location"
)

var validate = validator.New()

// Card is the part of card.Controller the HTTP shell drives.
type Card interface {
	View(now time.Time) (card.View, error)
	Refresh(ctx context.Context) (card.View, error)
	SelectCity(ctx context.Context, city string) (card.View, error)
	City() string
	Cities() []string
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, cc Card) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		v, err := cc.View(time.Now())
		if err != nil {
			return viewError(err)
		}
		return c.JSON(v)
	})

	v1.Post("/weather/refresh", func(c *fiber.Ctx) error {
		v, err := cc.Refresh(c.UserContext())
		if err != nil {
			if errors.Is(err, card.ErrNoCitySelected) {
				return viewError(err)
			}
			return staleView(c, v, err)
		}
		return c.JSON(v)
	})

	v1.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"cities":   cc.Cities(),
			"selected": cc.City(),
		})
	})

	v1.Get("/settings", func(c *fiber.Ctx) error {
		return c.JSON(settingsRequest{City: cc.City()})
	})

	v1.Put("/settings", func(c *fiber.Ctx) error {
		var req settingsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		v, err := cc.SelectCity(c.UserContext(), req.City)
		if err != nil {
			if errors.Is(err, location.ErrUnknownLocation) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			if v.City == "" {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to save settings")
			}
			return staleView(c, v, err)
		}
		return c.JSON(v)
	})
}

type settingsRequest struct {
	City string `json:"city" validate:"required"`
}

func viewError(err error) error {
	if errors.Is(err, card.ErrNoCitySelected) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

// staleView reports a failed upstream fetch together with the last good card.
func staleView(c *fiber.Ctx, v card.View, err error) error {
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
		"view":    v,
	})
}
