package controller

import "github.com/labstack/echo/v4"

type TopicController interface {
	List(c echo.Context) error
	Suggest(c echo.Context) error
	Ensure(c echo.Context) error
	Import(c echo.Context) error
}
