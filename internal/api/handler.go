// Package api exposes the daemon's commands and event stream over loopback
// HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/focuskit/internal/events"
	"github.com/sadopc/focuskit/internal/protocol"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, req protocol.Request) protocol.Response
}

type Subscriber interface {
	Subscribe() (<-chan events.Event, func())
}

// NewRouter builds the daemon's HTTP surface. Everything under /v1 needs
// the secret from the lockfile.
func NewRouter(d Dispatcher, sub Subscriber, secret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), LogMiddleware())

	r.GET("/healthz", Health())

	v1 := r.Group("/v1", SecretMiddleware(secret))
	v1.POST("/command", PostCommand(d))
	v1.GET("/events", GetEvents(sub))
	return r
}

func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// PostCommand decodes a protocol.Request and answers with the dispatch
// result. Command failures travel in the response body with status 200;
// only undecodable bodies get a 400.
func PostCommand(d Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req protocol.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, protocol.Failure(err))
			return
		}
		c.JSON(http.StatusOK, d.Dispatch(c.Request.Context(), req))
	}
}

// GetEvents streams events as newline-delimited JSON until the client goes
// away or the subscription closes.
func GetEvents(sub Subscriber) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch, cancel := sub.Subscribe()
		defer cancel()

		c.Header("Content-Type", "application/x-ndjson")
		c.Header("Cache-Control", "no-cache")
		c.Status(http.StatusOK)
		c.Writer.Flush()

		done := c.Request.Context().Done()
		c.Stream(func(w io.Writer) bool {
			select {
			case ev, ok := <-ch:
				if !ok {
					return false
				}
				return json.NewEncoder(w).Encode(ev) == nil
			case <-done:
				return false
			}
		})
	}
}
