// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package oam

import (
	"github.com/gin-gonic/gin"
	"github.com/omec-project/http_wrapper"
)

func HTTPGetSessions(c *gin.Context) {
	HTTPResponse := HandleOAMGetSessions()
	c.JSON(HTTPResponse.Status, HTTPResponse.Body)
}

func HTTPGetSessionsByIMSI(c *gin.Context) {
	req := http_wrapper.NewRequest(c.Request, nil)
	req.Params["imsi"] = c.Params.ByName("imsi")

	HTTPResponse := HandleOAMGetSessionsByIMSI(req.Params["imsi"])
	c.JSON(HTTPResponse.Status, HTTPResponse.Body)
}

func HTTPReleaseSession(c *gin.Context) {
	req := http_wrapper.NewRequest(c.Request, nil)
	req.Params["imsi"] = c.Params.ByName("imsi")
	req.Params["apn"] = c.Params.ByName("apn")

	HTTPResponse := HandleOAMReleaseSession(req.Params["imsi"], req.Params["apn"])
	if HTTPResponse.Body == nil {
		c.Status(HTTPResponse.Status)
		return
	}
	c.JSON(HTTPResponse.Status, HTTPResponse.Body)
}

func HTTPGetPeerNodes(c *gin.Context) {
	HTTPResponse := HandleOAMGetPeerNodes()
	c.JSON(HTTPResponse.Status, HTTPResponse.Body)
}
