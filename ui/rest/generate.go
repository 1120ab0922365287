package rest

import (
	"github.com/gofiber/fiber/v2"

	domainGenerate "github.com/inkwell-cms/inkwell/domains/generate"
	"github.com/inkwell-cms/inkwell/pkg/utils"
)

type Generate struct {
	Service domainGenerate.IGenerateUsecase
}

func InitRestGenerate(app fiber.Router, service domainGenerate.IGenerateUsecase) Generate {
	rest := Generate{Service: service}

	group := app.Group("/generate")
	group.Get("/models", rest.Models)
	group.Get("/provider", rest.Provider)

	return rest
}

func (controller *Generate) Models(c *fiber.Ctx) error {
	models, err := controller.Service.Models(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch available models",
		Results: models,
	})
}

func (controller *Generate) Provider(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch provider info",
		Results: map[string]any{
			"provider": controller.Service.ProviderName(),
			"healthy":  controller.Service.Healthy(c.UserContext()),
		},
	})
}
