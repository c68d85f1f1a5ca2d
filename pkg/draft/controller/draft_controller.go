package controller

import "github.com/labstack/echo/v4"

type DraftController interface {
	Autosave(c echo.Context) error
	Get(c echo.Context) error
	Delete(c echo.Context) error
	NewPending(c echo.Context) error
}
