package rest

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	domainAnalytics "github.com/inkwell-cms/inkwell/domains/analytics"
	"github.com/inkwell-cms/inkwell/pkg/utils"
)

type Analytics struct {
	Service domainAnalytics.IAnalyticsUsecase
}

func InitRestAnalytics(app fiber.Router, service domainAnalytics.IAnalyticsUsecase) Analytics {
	rest := Analytics{Service: service}

	group := app.Group("/analytics")
	group.Post("/metrics", rest.Record)
	group.Post("/page-views", rest.RecordPageView)
	group.Get("/overview", rest.Overview)
	group.Get("/trends", rest.Trends)
	group.Get("/series/:metric", rest.Series)
	group.Get("/top-pages", rest.TopPages)
	group.Get("/dashboard", rest.Dashboard)
	group.Post("/pages/refresh-title", rest.RefreshPageTitle)

	return rest
}

func queryDays(c *fiber.Ctx) int {
	days, _ := strconv.Atoi(c.Query("days", "30"))
	return days
}

func (controller *Analytics) Record(c *fiber.Ctx) error {
	var request domainAnalytics.RecordMetricRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	metric, err := controller.Service.Record(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.Status(201).JSON(utils.ResponseData{
		Status:  201,
		Code:    "CREATED",
		Message: "Success record website metrics",
		Results: metric,
	})
}

func (controller *Analytics) RecordPageView(c *fiber.Ctx) error {
	var request domainAnalytics.RecordPageViewRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	page, err := controller.Service.RecordPageView(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.Status(201).JSON(utils.ResponseData{
		Status:  201,
		Code:    "CREATED",
		Message: "Success record page view",
		Results: page,
	})
}

func (controller *Analytics) Overview(c *fiber.Ctx) error {
	overview, err := controller.Service.Overview(c.UserContext(), queryDays(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch analytics overview",
		Results: overview,
	})
}

func (controller *Analytics) Trends(c *fiber.Ctx) error {
	trend, err := controller.Service.Trends(c.UserContext(), queryDays(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch analytics trends",
		Results: trend,
	})
}

func (controller *Analytics) Series(c *fiber.Ctx) error {
	points, err := controller.Service.Series(c.UserContext(), c.Params("metric"), queryDays(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch analytics series",
		Results: points,
	})
}

func (controller *Analytics) TopPages(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	pages, err := controller.Service.TopPages(c.UserContext(), queryDays(c), limit)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch top pages",
		Results: pages,
	})
}

func (controller *Analytics) Dashboard(c *fiber.Ctx) error {
	dashboard, err := controller.Service.Dashboard(c.UserContext(), queryDays(c))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch analytics dashboard",
		Results: dashboard,
	})
}

func (controller *Analytics) RefreshPageTitle(c *fiber.Ctx) error {
	var request struct {
		Path string `json:"path"`
	}
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	page, err := controller.Service.RefreshPageTitle(c.UserContext(), request.Path)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success refresh page title",
		Results: page,
	})
}
