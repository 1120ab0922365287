package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/inkwell-cms/inkwell/domains/health"
	"github.com/inkwell-cms/inkwell/pkg/utils"
)

type Health struct {
	Service health.IHealthUsecase
}

// InitRestHealth registers the aggregate health probe. Mounted outside
// the authenticated group so load balancers can reach it.
func InitRestHealth(app fiber.Router, service health.IHealthUsecase) Health {
	rest := Health{Service: service}
	app.Get("/api/health", rest.Check)
	return rest
}

func (controller *Health) Check(c *fiber.Ctx) error {
	report := controller.Service.Check(c.UserContext())

	status := 200
	if report.Status != health.StatusOk {
		status = 503
	}

	return c.Status(status).JSON(utils.ResponseData{
		Status:  status,
		Code:    "SUCCESS",
		Message: "Health status retrieved",
		Results: report,
	})
}
