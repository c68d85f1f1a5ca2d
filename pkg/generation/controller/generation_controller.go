package controller

import "github.com/labstack/echo/v4"

type GenerationController interface {
	Generate(c echo.Context) error
	Variants(c echo.Context) error
	Validate(c echo.Context) error
	Normalize(c echo.Context) error
	Export(c echo.Context) error
}
