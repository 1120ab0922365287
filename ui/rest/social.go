package rest

import (
	"github.com/gofiber/fiber/v2"

	domainSocial "github.com/inkwell-cms/inkwell/domains/social"
	"github.com/inkwell-cms/inkwell/pkg/utils"
)

type Social struct {
	Service domainSocial.ISocialUsecase
}

func InitRestSocial(app fiber.Router, service domainSocial.ISocialUsecase) Social {
	rest := Social{Service: service}

	group := app.Group("/social-posts")
	group.Post("/", rest.Create)
	group.Get("/", rest.List)
	group.Post("/generate", rest.Generate)
	group.Get("/:id", rest.Get)
	group.Put("/:id", rest.Update)
	group.Post("/:id/publish", rest.Publish)
	group.Post("/:id/media", rest.UploadMedia)
	group.Delete("/:id", rest.Delete)

	return rest
}

func (controller *Social) Create(c *fiber.Ctx) error {
	var request domainSocial.CreateSocialPostRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	post, err := controller.Service.Create(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.Status(201).JSON(utils.ResponseData{
		Status:  201,
		Code:    "CREATED",
		Message: "Success create social post",
		Results: post,
	})
}

func (controller *Social) List(c *fiber.Ctx) error {
	var request domainSocial.ListSocialPostsRequest
	err := c.QueryParser(&request)
	utils.PanicIfNeeded(err)

	posts, err := controller.Service.List(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch social posts",
		Results: posts,
	})
}

func (controller *Social) Get(c *fiber.Ctx) error {
	post, err := controller.Service.Get(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch social post",
		Results: post,
	})
}

func (controller *Social) Update(c *fiber.Ctx) error {
	var request domainSocial.UpdateSocialPostRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	post, err := controller.Service.Update(c.UserContext(), c.Params("id"), request)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success update social post",
		Results: post,
	})
}

func (controller *Social) Publish(c *fiber.Ctx) error {
	post, err := controller.Service.Publish(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success publish social post",
		Results: post,
	})
}

func (controller *Social) Delete(c *fiber.Ctx) error {
	err := controller.Service.Delete(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success delete social post",
	})
}

func (controller *Social) Generate(c *fiber.Ctx) error {
	var request domainSocial.GenerateSocialPostRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	post, err := controller.Service.Generate(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	return c.Status(201).JSON(utils.ResponseData{
		Status:  201,
		Code:    "CREATED",
		Message: "Success generate social post",
		Results: post,
	})
}

func (controller *Social) UploadMedia(c *fiber.Ctx) error {
	file, err := c.FormFile("media")
	if err != nil {
		return c.Status(400).JSON(utils.ResponseData{
			Status:  400,
			Code:    "BAD_REQUEST",
			Message: "media file is required",
		})
	}

	result, err := controller.Service.UploadMedia(c.UserContext(), c.Params("id"), file)
	utils.PanicIfNeeded(err)

	return c.Status(201).JSON(utils.ResponseData{
		Status:  201,
		Code:    "CREATED",
		Message: "Success upload media",
		Results: result,
	})
}
