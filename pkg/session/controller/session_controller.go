package controller

import "github.com/labstack/echo/v4"

type SessionController interface {
	Create(c echo.Context) error
	Get(c echo.Context) error
	Publish(c echo.Context) error
	Export(c echo.Context) error
}
