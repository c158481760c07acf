package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/berfenger/sunflow2mqtt/internal/core/domain"
	"github.com/berfenger/sunflow2mqtt/pkg/profile_modbus"

	"github.com/carlmjohnson/versioninfo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/status", s.StatusHandler)
	e.GET("/device", s.DeviceHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

// StatusHandler performs an on-demand read. Optional "groups" query param is
// a comma-separated subsystem list.
func (s *Server) StatusHandler(c echo.Context) error {
	var groups []profile_modbus.SubsystemGroup
	if raw := c.QueryParam("groups"); raw != "" {
		for _, g := range strings.Split(raw, ",") {
			if g = strings.TrimSpace(g); g != "" {
				groups = append(groups, profile_modbus.SubsystemGroup(g))
			}
		}
	}
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetStatusRequest{Groups: groups}, 30*time.Second).Result()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}
	response, ok := res.(domain.GetStatusResponse)
	if !ok || response.HasResponseError() {
		status := http.StatusBadGateway
		msg := "read failed"
		if ok && response.GetResponseError() != nil {
			msg = response.GetResponseError().Error()
		}
		return c.JSON(status, map[string]string{"error": msg})
	}
	return c.JSON(http.StatusOK, response.Status)
}

func (s *Server) DeviceHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetDeviceInfoRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	}
	response, ok := res.(domain.GetDeviceInfoResponse)
	if !ok {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "device info failed"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"profile":      response.ProfileID,
		"manufacturer": response.Info.Manufacturer,
		"models":       response.Info.Models,
		"bridge":       versioninfo.Short(),
	})
}

