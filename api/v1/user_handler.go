package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/mathrivals/ArenaServer/internal/user"
)

var UserService *user.UserService

func RegisterUserRoutes(g *echo.Group) {
	g.POST("/signup", SignupHandler)
	g.POST("/login", LoginHandler)
	g.GET("/ratings/:id", GetUserRatingsHandler)
}

func SignupHandler(c echo.Context) error {
	var u user.User
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, INVALID_REQUEST)
	}
	token, err := UserService.Signup(u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"token": token})
}

func LoginHandler(c echo.Context) error {
	var u user.User
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, INVALID_REQUEST)
	}
	token, err := UserService.Login(u)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

func GetUserRatingsHandler(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user ID")
	}

	ratings, errRatings := UserService.GetRatings(uint(id))
	if errRatings != nil {
		return errRatings
	}
	return c.JSON(http.StatusOK, ratings)
}
