package controllers_fx

import (
	"go.uber.org/fx"

	"stockly/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewAccountController),
	fx.Provide(controllers.NewTierController),
	fx.Provide(controllers.NewProductController),
	fx.Provide(controllers.NewCategoryController))
