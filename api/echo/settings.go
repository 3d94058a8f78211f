package echoapi

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/darasahq/darasa/core"
)

// Settings is the school profile shown across the dashboard. Seeded from
// config; PUT updates live in memory until the next restart.
type Settings struct {
	SchoolName    string `json:"school_name"`
	SchoolAddress string `json:"school_address"`
	NotifyEmail   string `json:"notify_email"`
}

type settingsApi struct {
	mu       sync.RWMutex
	settings Settings
}

func registerSettingsAPI(g *echo.Group, deps ServerDeps) {
	api := &settingsApi{settings: Settings{
		SchoolName:    deps.Conf.SchoolName,
		SchoolAddress: deps.Conf.SchoolAddress,
		NotifyEmail:   deps.Conf.NotifyEmail,
	}}

	g.GET("/settings", api.settingsRetrieve)
	g.PUT("/settings", api.settingsUpdate)
}

func (api *settingsApi) settingsRetrieve(ctx echo.Context) error {
	api.mu.RLock()
	defer api.mu.RUnlock()
	return ctx.JSON(http.StatusOK, api.settings)
}

func (api *settingsApi) settingsUpdate(ctx echo.Context) error {
	data := new(Settings)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if data.SchoolName == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "school_name", Error: "this field is required"})
	}

	api.mu.Lock()
	api.settings = *data
	api.mu.Unlock()
	return ctx.JSON(http.StatusOK, data)
}
