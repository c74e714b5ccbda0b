package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/janitarr/janitarr/internal/history"
	"github.com/janitarr/janitarr/internal/sweep"
)

// webhookPayload is the Tautulli-style recently-added notification body.
type webhookPayload struct {
	Event     string `json:"event"`
	RatingKey string `json:"rating_key"`
}

// handleWebhook accepts a recently-added notification and starts a sweep
// scoped to that item. The sweep runs in the background; the webhook sender
// only needs the intake acknowledged.
func (s *Server) handleWebhook(c echo.Context) error {
	var payload webhookPayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid webhook payload")
	}
	if payload.RatingKey == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "rating_key is required")
	}

	dryRun := s.dryRunParam(c)
	s.logger.Info().
		Str("event", payload.Event).
		Str("ratingKey", payload.RatingKey).
		Msg("webhook received")

	go func() {
		if _, err := s.sweeper.RunItem(context.Background(), payload.RatingKey, dryRun); err != nil {
			s.logger.Error().Err(err).Str("ratingKey", payload.RatingKey).Msg("webhook sweep failed")
		}
	}()

	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

// triggerSweep starts a manual full sweep in the background.
func (s *Server) triggerSweep(c echo.Context) error {
	dryRun := s.dryRunParam(c)

	go func() {
		if _, err := s.sweeper.Run(context.Background(), sweep.TriggerManual, dryRun); err != nil {
			s.logger.Error().Err(err).Msg("manual sweep failed")
		}
	}()

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"status": "started",
		"dryRun": dryRun,
	})
}

// dryRunParam resolves the effective dry-run flag: an explicit query
// parameter wins, otherwise the configured default applies.
func (s *Server) dryRunParam(c echo.Context) bool {
	if raw := c.QueryParam("dryRun"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			return v
		}
	}
	return s.defaultDryRun
}

func (s *Server) listSweeps(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	entries, err := s.history.List(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list sweeps")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list sweeps")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sweeps": entries})
}

func (s *Server) getSweep(c echo.Context) error {
	entry, err := s.history.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, history.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "sweep not found")
	}
	if err != nil {
		s.logger.Error().Err(err).Str("id", c.Param("id")).Msg("failed to fetch sweep")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch sweep")
	}
	return c.JSON(http.StatusOK, entry)
}

func (s *Server) listTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"tasks": s.scheduler.ListTasks()})
}
