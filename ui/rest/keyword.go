package rest

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	domainKeyword "github.com/inkwell-cms/inkwell/domains/keyword"
	"github.com/inkwell-cms/inkwell/pkg/utils"
)

type Keyword struct {
	Service domainKeyword.IKeywordUsecase
}

func InitRestKeyword(app fiber.Router, service domainKeyword.IKeywordUsecase) Keyword {
	rest := Keyword{Service: service}

	group := app.Group("/keywords")
	group.Post("/", rest.Create)
	group.Get("/", rest.List)
	group.Get("/search", rest.Search)
	group.Get("/metrics", rest.Metrics)
	group.Get("/top", rest.TopPerforming)
	group.Post("/batch-delete", rest.BatchDelete)
	group.Post("/batch-status", rest.BatchStatus)
	group.Get("/:id", rest.Get)
	group.Put("/:id", rest.Update)
	group.Delete("/:id", rest.Delete)
	group.Post("/:id/performance", rest.RecordPerformance)
	group.Post("/:id/blog-posts/:post_id", rest.LinkBlogPost)
	group.Get("/:id/blog-posts", rest.BlogPosts)

	return rest
}

func (controller *Keyword) Create(c *fiber.Ctx) error {
	var request domainKeyword.CreateKeywordRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	keyword, err := controller.Service.Create(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.Status(201).JSON(utils.ResponseData{
		Status:  201,
		Code:    "CREATED",
		Message: "Success create keyword",
		Results: keyword,
	})
}

func (controller *Keyword) List(c *fiber.Ctx) error {
	keywords, err := controller.Service.List(c.UserContext(), c.Query("status"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch keywords",
		Results: keywords,
	})
}

func (controller *Keyword) Search(c *fiber.Ctx) error {
	keywords, err := controller.Service.Search(c.UserContext(), c.Query("q"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success search keywords",
		Results: keywords,
	})
}

func (controller *Keyword) Metrics(c *fiber.Ctx) error {
	metrics, err := controller.Service.Metrics(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch keyword metrics",
		Results: metrics,
	})
}

func (controller *Keyword) TopPerforming(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	keywords, err := controller.Service.TopPerforming(c.UserContext(), limit)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch top keywords",
		Results: keywords,
	})
}

func (controller *Keyword) Get(c *fiber.Ctx) error {
	keyword, err := controller.Service.Get(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch keyword",
		Results: keyword,
	})
}

func (controller *Keyword) Update(c *fiber.Ctx) error {
	var request domainKeyword.UpdateKeywordRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	keyword, err := controller.Service.Update(c.UserContext(), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success update keyword",
		Results: keyword,
	})
}

func (controller *Keyword) Delete(c *fiber.Ctx) error {
	err := controller.Service.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success delete keyword",
	})
}

func (controller *Keyword) BatchDelete(c *fiber.Ctx) error {
	var request domainKeyword.BatchDeleteRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	deleted, err := controller.Service.BatchDelete(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success batch delete keywords",
		Results: map[string]any{"deleted": deleted},
	})
}

func (controller *Keyword) BatchStatus(c *fiber.Ctx) error {
	var request domainKeyword.BatchStatusRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	updated, err := controller.Service.BatchStatus(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success batch update keyword status",
		Results: map[string]any{"updated": updated},
	})
}

func (controller *Keyword) RecordPerformance(c *fiber.Ctx) error {
	var request domainKeyword.RecordPerformanceRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	keyword, err := controller.Service.RecordPerformance(c.UserContext(), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success record keyword performance",
		Results: keyword,
	})
}

func (controller *Keyword) LinkBlogPost(c *fiber.Ctx) error {
	err := controller.Service.LinkBlogPost(c.UserContext(), c.Params("id"), c.Params("post_id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success link blog post",
	})
}

func (controller *Keyword) BlogPosts(c *fiber.Ctx) error {
	ids, err := controller.Service.BlogPostsForKeyword(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch linked blog posts",
		Results: ids,
	})
}
