// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package oam

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/omec-project/pgwc/logger"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// Routes is the list of the generated Route.
type Routes []Route

const basePath = "/pgw-oam/v1"

// NewRouter returns a gin engine serving the OAM routes.
func NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), accessLog())
	AddService(router)
	return router
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.OamLog.Infof("| %3d | %15s | %-7s | %s", c.Writer.Status(), c.ClientIP(), c.Request.Method,
			c.Request.URL.Path)
	}
}

func AddService(engine *gin.Engine) *gin.RouterGroup {
	group := engine.Group(basePath)

	for _, route := range routes {
		switch route.Method {
		case http.MethodGet:
			group.GET(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			group.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return group
}

// Index is the index handler.
func Index(c *gin.Context) {
	c.String(http.StatusOK, "Hello World!")
}

var routes = Routes{
	{
		"Index",
		strings.ToUpper("Get"),
		"/",
		Index,
	},

	{
		"Sessions",
		strings.ToUpper("Get"),
		"/sessions",
		HTTPGetSessions,
	},

	{
		"SessionsByIMSI",
		strings.ToUpper("Get"),
		"/sessions/:imsi",
		HTTPGetSessionsByIMSI,
	},

	{
		"ReleaseSession",
		strings.ToUpper("Delete"),
		"/sessions/:imsi/:apn",
		HTTPReleaseSession,
	},

	{
		"PeerNodes",
		strings.ToUpper("Get"),
		"/peers",
		HTTPGetPeerNodes,
	},
}
