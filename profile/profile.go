// SPDX-FileCopyrightText: 2024 Open Networking Foundation <info@opennetworking.org>
//
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"net/http"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/omec-project/pgwc/logger"
)

const basePath = "/pgw-profile/v1"

type memoryparams struct {
	HeapSys      uint64 `json:"heapSys"`
	HeapAlloc    uint64 `json:"heapAlloc"`
	HeapIdle     uint64 `json:"heapIdle"`
	HeapReleased uint64 `json:"heapReleased"`
	HeapInuse    uint64 `json:"heapInuse"`
	NumGoroutine int    `json:"numGoroutine"`
}

// AddService mounts the profiling endpoints on engine.
func AddService(engine *gin.Engine) *gin.RouterGroup {
	logger.AppLog.Infof("profiling enabled under %s", basePath)
	group := engine.Group(basePath)
	group.GET("/memorystats", GenerateMemStatsProfile)
	group.GET("/cpu", GenerateCpuProfile)
	group.GET("/:name", GenerateProfile)
	return group
}

// GenerateProfile writes the named runtime profile, e.g. heap, goroutine
// or block, in pprof format.
func GenerateProfile(c *gin.Context) {
	name := c.Param("name")
	p := pprof.Lookup(name)
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"title": "PROFILE_NOT_FOUND", "detail": name})
		return
	}
	logger.AppLog.Infof("Generating %s profile", name)
	if name == "heap" {
		runtime.GC() // materialize all statistics
	}
	c.Header("Content-Type", "application/octet-stream")
	if err := p.WriteTo(c.Writer, 0); err != nil {
		logger.AppLog.Errorf("Could not write %s profile: %v", name, err)
	}
}

// GenerateCpuProfile samples the CPU for the number of seconds given by
// the seconds query parameter, 5 by default.
func GenerateCpuProfile(c *gin.Context) {
	d := 5 * time.Second
	if s := c.Query("seconds"); s != "" {
		v, err := time.ParseDuration(s + "s")
		if err != nil || v <= 0 || v > time.Minute {
			c.JSON(http.StatusBadRequest, gin.H{"title": "INVALID_QUERY_PARAM", "detail": s})
			return
		}
		d = v
	}

	logger.AppLog.Infof("Generating cpu profile for %v", d)
	c.Header("Content-Type", "application/octet-stream")
	if err := pprof.StartCPUProfile(c.Writer); err != nil {
		logger.AppLog.Errorf("Could not start CPU profile: %v", err)
		c.JSON(http.StatusConflict, gin.H{"title": "PROFILE_BUSY", "detail": err.Error()})
		return
	}
	select {
	case <-time.After(d):
	case <-c.Request.Context().Done():
	}
	pprof.StopCPUProfile()
}

func GenerateMemStatsProfile(c *gin.Context) {
	logger.AppLog.Infof("Generating stats for heap memory")

	var memstats runtime.MemStats
	runtime.ReadMemStats(&memstats)
	c.JSON(http.StatusOK, &memoryparams{
		HeapSys:      memstats.HeapSys,
		HeapAlloc:    memstats.HeapAlloc,
		HeapIdle:     memstats.HeapIdle,
		HeapReleased: memstats.HeapReleased,
		HeapInuse:    memstats.HeapInuse,
		NumGoroutine: runtime.NumGoroutine(),
	})
}
