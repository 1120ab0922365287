package rest

import (
	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"

	domainSchedule "github.com/inkwell-cms/inkwell/domains/schedule"
	"github.com/inkwell-cms/inkwell/pkg/utils"
	"github.com/inkwell-cms/inkwell/schedule/application"
)

type Schedule struct {
	Service domainSchedule.IScheduleUsecase
	Runner  *application.Runner
}

// InitRestSchedule wires schedule CRUD plus the runner endpoints. The
// runner may be nil when the background scheduler is disabled; status
// then reports it as stopped and manual runs still work through the
// service.
func InitRestSchedule(app fiber.Router, service domainSchedule.IScheduleUsecase, runner *application.Runner) Schedule {
	rest := Schedule{Service: service, Runner: runner}

	group := app.Group("/schedules")
	group.Post("/", rest.Create)
	group.Get("/", rest.List)
	group.Post("/run", rest.RunDue)
	group.Get("/due", rest.DueItems)
	group.Get("/:id", rest.Get)
	group.Post("/:id/cancel", rest.Cancel)
	group.Post("/:id/retry", rest.Retry)
	group.Delete("/:id", rest.Delete)

	app.Get("/scheduler/status", rest.SchedulerStatus)

	return rest
}

func (controller *Schedule) Create(c *fiber.Ctx) error {
	var request domainSchedule.CreateScheduleRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	item, err := controller.Service.Create(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	// The new schedule may already be the next due item.
	if controller.Runner != nil {
		controller.Runner.Wake()
	}

	return c.Status(201).JSON(utils.ResponseData{
		Status:  201,
		Code:    "CREATED",
		Message: "Success create schedule",
		Results: item,
	})
}

func (controller *Schedule) List(c *fiber.Ctx) error {
	var request domainSchedule.ListSchedulesRequest
	err := c.QueryParser(&request)
	utils.PanicIfNeeded(err)

	items, err := controller.Service.List(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch schedules",
		Results: items,
	})
}

func (controller *Schedule) Get(c *fiber.Ctx) error {
	item, err := controller.Service.Get(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch schedule",
		Results: item,
	})
}

func (controller *Schedule) Cancel(c *fiber.Ctx) error {
	item, err := controller.Service.Cancel(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success cancel schedule",
		Results: item,
	})
}

func (controller *Schedule) Retry(c *fiber.Ctx) error {
	item, err := controller.Service.Retry(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	if controller.Runner != nil {
		controller.Runner.Wake()
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success retry schedule",
		Results: item,
	})
}

func (controller *Schedule) Delete(c *fiber.Ctx) error {
	err := controller.Service.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success delete schedule",
	})
}

func (controller *Schedule) DueItems(c *fiber.Ctx) error {
	items, err := controller.Service.DueItems(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch due schedules",
		Results: items,
	})
}

// RunDue performs a synchronous sweep, bypassing the background runner.
func (controller *Schedule) RunDue(c *fiber.Ctx) error {
	report, err := controller.Service.RunDue(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success run due schedules",
		Results: report,
	})
}

func (controller *Schedule) SchedulerStatus(c *fiber.Ctx) error {
	if controller.Runner == nil {
		return c.JSON(utils.ResponseData{
			Status:  200,
			Code:    "SUCCESS",
			Message: "Scheduler status retrieved",
			Results: map[string]any{"running": false},
		})
	}

	stats := controller.Runner.Stats()
	results := map[string]any{
		"stats": stats,
	}
	if stats.Running {
		results["uptime"] = humanize.Time(stats.StartedAt)
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Scheduler status retrieved",
		Results: results,
	})
}
