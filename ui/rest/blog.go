package rest

import (
	"github.com/gofiber/fiber/v2"

	domainBlog "github.com/inkwell-cms/inkwell/domains/blog"
	"github.com/inkwell-cms/inkwell/pkg/utils"
)

type Blog struct {
	Service domainBlog.IBlogUsecase
}

func InitRestBlog(app fiber.Router, service domainBlog.IBlogUsecase) Blog {
	rest := Blog{Service: service}

	group := app.Group("/blog-posts")
	group.Post("/", rest.Create)
	group.Get("/", rest.List)
	group.Post("/generate", rest.Generate)
	group.Get("/:id", rest.Get)
	group.Put("/:id", rest.Update)
	group.Post("/:id/publish", rest.Publish)
	group.Delete("/:id", rest.Delete)

	return rest
}

func (controller *Blog) Create(c *fiber.Ctx) error {
	var request domainBlog.CreateBlogPostRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	post, err := controller.Service.Create(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.Status(201).JSON(utils.ResponseData{
		Status:  201,
		Code:    "CREATED",
		Message: "Success create blog post",
		Results: post,
	})
}

func (controller *Blog) List(c *fiber.Ctx) error {
	var request domainBlog.ListBlogPostsRequest
	err := c.QueryParser(&request)
	utils.PanicIfNeeded(err)

	posts, err := controller.Service.List(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch blog posts",
		Results: posts,
	})
}

func (controller *Blog) Get(c *fiber.Ctx) error {
	post, err := controller.Service.Get(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch blog post",
		Results: post,
	})
}

func (controller *Blog) Update(c *fiber.Ctx) error {
	var request domainBlog.UpdateBlogPostRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	post, err := controller.Service.Update(c.UserContext(), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success update blog post",
		Results: post,
	})
}

func (controller *Blog) Publish(c *fiber.Ctx) error {
	post, err := controller.Service.Publish(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success publish blog post",
		Results: post,
	})
}

func (controller *Blog) Delete(c *fiber.Ctx) error {
	err := controller.Service.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success delete blog post",
	})
}

func (controller *Blog) Generate(c *fiber.Ctx) error {
	var request domainBlog.GenerateBlogPostRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	post, err := controller.Service.Generate(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.Status(201).JSON(utils.ResponseData{
		Status:  201,
		Code:    "CREATED",
		Message: "Success generate blog post",
		Results: post,
	})
}
