package controller

import "github.com/labstack/echo/v4"

type ReadinessController interface {
	Compute(c echo.Context) error
}
