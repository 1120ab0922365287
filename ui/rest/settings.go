package rest

import (
	"github.com/gofiber/fiber/v2"

	coreconfig "github.com/inkwell-cms/inkwell/core/config"
	settingsApp "github.com/inkwell-cms/inkwell/core/settings/application"
	settingsDomain "github.com/inkwell-cms/inkwell/core/settings/domain"
	"github.com/inkwell-cms/inkwell/pkg/utils"
)

type Settings struct {
	Service *settingsApp.SettingsService
}

func InitRestSettings(app fiber.Router, service *settingsApp.SettingsService) Settings {
	rest := Settings{Service: service}

	group := app.Group("/settings")
	group.Get("/", rest.List)
	group.Put("/", rest.Set)
	group.Get("/runtime", rest.Runtime)
	group.Get("/groups/:group", rest.GetGroup)
	group.Delete("/groups/:group", rest.DeleteGroup)
	group.Get("/:key", rest.Get)
	group.Delete("/:key", rest.Delete)

	return rest
}

func (controller *Settings) List(c *fiber.Ctx) error {
	settings, err := controller.Service.GetByPrefix(c.UserContext(), c.Query("prefix"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch settings",
		Results: settings,
	})
}

// Runtime reports the live process configuration, as opposed to the
// DB-backed settings the rest of this controller manages.
func (controller *Settings) Runtime(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch runtime configuration",
		Results: coreconfig.GetAllSettings(),
	})
}

func (controller *Settings) Get(c *fiber.Ctx) error {
	setting, err := controller.Service.Get(c.UserContext(), c.Params("key"))
	utils.PanicIfNeeded(err)

	if setting == nil {
		return c.Status(404).JSON(utils.ResponseData{
			Status:  404,
			Code:    "NOT_FOUND",
			Message: "Setting not found",
		})
	}

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch setting",
		Results: setting,
	})
}

func (controller *Settings) Set(c *fiber.Ctx) error {
	var setting settingsDomain.Setting
	err := c.BodyParser(&setting)
	utils.PanicIfNeeded(err)

	err = controller.Service.Set(c.UserContext(), setting)
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success save setting",
		Results: setting,
	})
}

func (controller *Settings) Delete(c *fiber.Ctx) error {
	err := controller.Service.Delete(c.UserContext(), c.Params("key"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success delete setting",
	})
}

func (controller *Settings) GetGroup(c *fiber.Ctx) error {
	settings, err := controller.Service.GetGroup(c.UserContext(), c.Params("group"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success fetch settings group",
		Results: settings,
	})
}

func (controller *Settings) DeleteGroup(c *fiber.Ctx) error {
	err := controller.Service.DeleteGroup(c.UserContext(), c.Params("group"))
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Success delete settings group",
	})
}
