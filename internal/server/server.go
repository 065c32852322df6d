// Copyright 2024 The jadwalsholat Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package server serves a prayer time table as JSON over HTTP.
package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/awqot/jadwalsholat"
	"github.com/awqot/jadwalsholat/internal/config"
)

// Table is the query surface of a loaded *jadwalsholat.Table.
type Table interface {
	DataTimestamp() (time.Time, error)
	Provinces() ([]string, error)
	Regencies(province string) ([]string, error)
	Schedules(province, regency string) ([]jadwalsholat.ScheduleEntry, error)
	Times(province, regency string, month, date int) ([]jadwalsholat.PrayerTime, error)
}

var _ Table = (*jadwalsholat.Table)(nil)

type handler struct {
	table Table
	log   zerolog.Logger
}

// New returns the HTTP handler serving table.
func New(table Table, cfg config.ServerConfig, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Accept", "If-None-Match"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowOrigins
	}
	r.Use(cors.New(corsConfig))

	h := &handler{table: table, log: log}
	r.GET("/healthz", h.health)

	api := r.Group("/api/v1")
	api.GET("/timestamp", h.timestamp)
	api.GET("/provinces", h.provinces)
	api.GET("/provinces/:province/regencies", h.regencies)
	api.GET("/provinces/:province/regencies/:regency/schedules", h.schedules)
	api.GET("/provinces/:province/regencies/:regency/times/:month/:date", h.times)

	return r
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func (h *handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, jadwalsholat.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, jadwalsholat.ErrNotLoaded):
		status = http.StatusServiceUnavailable
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("query failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (h *handler) health(c *gin.Context) {
	if _, err := h.table.DataTimestamp(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) timestamp(c *gin.Context) {
	ts, err := h.table.DataTimestamp()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timestamp": ts})
}

func (h *handler) provinces(c *gin.Context) {
	provinces, err := h.table.Provinces()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provinces": provinces})
}

func (h *handler) regencies(c *gin.Context) {
	province := c.Param("province")
	regencies, err := h.table.Regencies(province)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"province": province, "regencies": regencies})
}

func (h *handler) schedules(c *gin.Context) {
	province, regency := c.Param("province"), c.Param("regency")
	schedules, err := h.table.Schedules(province, regency)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"province": province, "regency": regency, "schedules": schedules})
}

func (h *handler) times(c *gin.Context) {
	province, regency := c.Param("province"), c.Param("regency")
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "month must be a number"})
		return
	}
	date, err := strconv.Atoi(c.Param("date"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "date must be a number"})
		return
	}
	times, err := h.table.Times(province, regency, month, date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"province": province,
		"regency":  regency,
		"month":    month,
		"date":     date,
		"times":    times,
	})
}
