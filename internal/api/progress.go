package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/example/ieltsprep/internal/progress"
	"github.com/example/ieltsprep/pkg/models"
)

const (
	defaultDueLimit = 20
	maxDueLimit     = 100
)

type progressApi struct {
	svc *progress.Service
}

type (
	settingsRequest struct {
		Username            *string `json:"username" validate:"omitempty,max=64"`
		FirstName           *string `json:"first_name" validate:"omitempty,max=64"`
		Timezone            *string `json:"timezone" validate:"omitempty,max=64"`
		DailyTarget         *int    `json:"daily_target" validate:"omitempty,max=500"`
		GoalTotal           *int    `json:"goal_total" validate:"omitempty,max=1000000"`
		NotificationEnabled *bool   `json:"notification_enabled"`
		NotificationHour    *int    `json:"notification_hour" validate:"omitempty,max=23"`
	}

	drillRequest struct {
		Module string `json:"module" validate:"omitempty,oneof=listening reading writing speaking vocabulary"`
		Prompt string `json:"prompt" validate:"required,max=1000"`
		Answer string `json:"answer" validate:"max=4000"`
		Notes  string `json:"notes" validate:"max=4000"`
	}

	gradeRequest struct {
		Grade *int `json:"grade" validate:"required,min=0,max=5"`
	}

	drillsResponse struct {
		Drills []models.Drill `json:"drills"`
	}
)

func registerProgressAPI(g *echo.Group, svc *progress.Service) {
	api := progressApi{svc: svc}

	ug := g.Group("/users/:userID")
	ug.PUT("", api.putUser)
	ug.GET("", api.getUser)

	ug.POST("/drills", api.addDrill)
	ug.GET("/drills", api.listDrills)
	ug.GET("/drills/due", api.dueDrills)
	ug.POST("/drills/:drillID/grade", api.gradeDrill)

	ug.GET("/streak", api.getStreak)
	ug.POST("/streak/complete", api.completeToday)

	ug.GET("/plan", api.getPlan)
}

// Handlers

func (a *progressApi) putUser(c echo.Context) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}
	data := new(settingsRequest)
	if err := bindAndValidate(c, data); err != nil {
		return err
	}

	usr, err := a.svc.UpdateSettings(c.Request().Context(), userID, progress.Settings{
		Username:            data.Username,
		FirstName:           data.FirstName,
		Timezone:            data.Timezone,
		DailyTarget:         data.DailyTarget,
		GoalTotal:           data.GoalTotal,
		NotificationEnabled: data.NotificationEnabled,
		NotificationHour:    data.NotificationHour,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usr)
}

func (a *progressApi) getUser(c echo.Context) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}
	usr, err := a.svc.User(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, usr)
}

func (a *progressApi) addDrill(c echo.Context) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}
	data := new(drillRequest)
	if err := bindAndValidate(c, data); err != nil {
		return err
	}

	drill, err := a.svc.AddDrill(c.Request().Context(), userID, progress.NewDrill{
		Module: models.Module(data.Module),
		Prompt: data.Prompt,
		Answer: data.Answer,
		Notes:  data.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, drill)
}

func (a *progressApi) listDrills(c echo.Context) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}
	drills, err := a.svc.Drills(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	if drills == nil {
		drills = []models.Drill{}
	}
	return c.JSON(http.StatusOK, drillsResponse{Drills: drills})
}

func (a *progressApi) dueDrills(c echo.Context) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}

	limit := defaultDueLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	if limit > maxDueLimit {
		limit = maxDueLimit
	}

	drills, err := a.svc.DueDrills(c.Request().Context(), userID, limit)
	if err != nil {
		return err
	}
	if drills == nil {
		drills = []models.Drill{}
	}
	return c.JSON(http.StatusOK, drillsResponse{Drills: drills})
}

func (a *progressApi) gradeDrill(c echo.Context) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}
	data := new(gradeRequest)
	if err := bindAndValidate(c, data); err != nil {
		return err
	}

	res, err := a.svc.GradeDrill(c.Request().Context(), userID, c.Param("drillID"), *data.Grade)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (a *progressApi) getStreak(c echo.Context) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}
	view, err := a.svc.Streak(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (a *progressApi) completeToday(c echo.Context) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}
	st, err := a.svc.CompleteToday(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

func (a *progressApi) getPlan(c echo.Context) error {
	userID, err := userIDParam(c)
	if err != nil {
		return err
	}
	plan, err := a.svc.Plan(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}

// Helpers

func userIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("userID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidUserID
	}
	return id, nil
}

func bindAndValidate(c echo.Context, data interface{}) error {
	if err := c.Bind(data); err != nil {
		return err
	}
	return c.Validate(data)
}
