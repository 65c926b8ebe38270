package app

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/klabast/wb-services/abfall-fhem/internal/config"
	"github.com/klabast/wb-services/abfall-fhem/pkg/logging"
)

func (s *Server) handleReadings(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	snapshot, err := s.module.Store().Snapshot(ctx)
	if err != nil {
		logging.Error(httpSubsystem, err, "Error reading snapshot")
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"device": s.module.Name(), "readings": snapshot})
}

func (s *Server) handleReading(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	name := c.Param("name")
	value, ok, err := s.module.Store().Get(ctx, name)
	if err != nil {
		logging.Error(httpSubsystem, err, "Error reading %s", name)
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrInternalServer})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrNotFound})
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": name, "value": value})
}

func (s *Server) handleState(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	state, _, err := s.module.Store().Get(ctx, ReadingState)
	if err != nil {
		logging.Error(httpSubsystem, err, "Error reading state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrInternalServer})
		return
	}
	text, err := s.module.StateText(ctx)
	if err != nil {
		logging.Error(httpSubsystem, err, "Error rendering state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":         state,
		"text":          text,
		"icon":          DefaultIcon,
		"include_today": s.module.IncludeToday(),
	})
}

// reminderParams maps the reminder query flags to their time parameter and
// the days before the collection
var reminderParams = []struct {
	flag, time string
	daysBefore int
}{
	{"reminder2Days", "time2Days", 2},
	{"reminder1Day", "time1Day", 1},
	{"reminderSameDay", "timeSameDay", 0},
}

func parseReminders(c *gin.Context) ([]Reminder, error) {
	var reminders []Reminder
	for _, p := range reminderParams {
		if c.Query(p.flag) != "true" {
			continue
		}
		at, err := config.ParseClockTime(c.Query(p.time))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.time, err)
		}
		reminders = append(reminders, Reminder{DaysBefore: p.daysBefore, At: at})
	}
	return reminders, nil
}

// handleCalendar serves the calendar inline so it can be subscribed to.
// Reminder query parameters add alarms to every event.
func (s *Server) handleCalendar(c *gin.Context) {
	reminders, err := parseReminders(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(reminders) == 0 {
		c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(s.module.ICalendar()))
		return
	}

	var sb strings.Builder
	WriteICS(&sb, s.module.Upcoming(), s.module.Now(), reminders...)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(sb.String()))
}

func (s *Server) handleUpcoming(c *gin.Context) {
	events := s.module.Upcoming()

	switch strings.ToLower(c.DefaultQuery("format", "json")) {
	case "json":
		c.Header("Content-Type", "application/json; charset=utf-8")
		if c.Query("download") == "true" {
			attachment(c, s.module.Name(), "json")
		}
		c.Status(http.StatusOK)
		if err := WriteJSON(c.Writer, s.module.Name(), events); err != nil {
			logging.Error(httpSubsystem, err, "Error encoding JSON export")
		}
	case "csv":
		c.Header("Content-Type", "text/csv; charset=utf-8")
		attachment(c, s.module.Name(), "csv")
		c.Status(http.StatusOK)
		if err := WriteCSV(c.Writer, events); err != nil {
			logging.Error(httpSubsystem, err, "Error writing CSV export")
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or csv"})
	}
}

// handleUpdate is the set update command. It answers 202 while events are
// fetched in the background and 200 with the resulting state otherwise.
func (s *Server) handleUpdate(c *gin.Context) {
	ctx := c.Request.Context()
	fetching, err := s.module.Trigger(ctx)
	if err != nil {
		logging.Error(httpSubsystem, err, "Update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if fetching {
		c.JSON(http.StatusAccepted, gin.H{"status": "update started"})
		return
	}

	state, _, err := s.module.Store().Get(ctx, ReadingState)
	if err != nil {
		logging.Error(httpSubsystem, err, "Error reading state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrInternalServer})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated", "state": state})
}

// handleSetAttribute is the attr command. The raw request body is the value.
func (s *Server) handleSetAttribute(c *gin.Context) {
	name := c.Param("name")
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.module.SetAttribute(c.Request.Context(), name, string(body)); err != nil {
		status := http.StatusInternalServerError
		if IsKind(err, KindConfig) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	value, _ := s.module.Attribute(name)
	c.JSON(http.StatusOK, gin.H{"name": name, "value": value})
}
