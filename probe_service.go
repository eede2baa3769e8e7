package main

import (
	"context"
	"flag"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bradfitz/iter"
	gateway "github.com/cataloro/probe/apigateway"
	"github.com/cataloro/probe/checks"
	"github.com/cataloro/probe/dashboard"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GetMainEngine function responsible for getting all of our routes to be delivered for gin
func GetMainEngine() *gin.Engine {
	route := gin.Default()
	route.Use(gateway.RequestID())
	route.Use(gateway.Instrumentation())
	route.Use(gateway.RequestLogger(logrusLogger, gateway.LogSamplingConfig{Tick: time.Minute, After: 2 * time.Second}))
	route.HandleMethodNotAllowed = true
	route.SetFuncMap(template.FuncMap{"N": iter.N, "time": dashboard.TimeFormatter})
	route.LoadHTMLGlob("./dashboard/template/*")

	route.GET("/health", healthHandler)
	route.GET("/metrics", gin.WrapH(promhttp.Handler()))
	route.GET("/checks", listChecks)
	route.GET("/last_run", lastRun)
	route.POST("/run", gateway.RequireAdmin(adminAuth), triggerRun)

	dashboardGroup := route.Group("/dashboard")
	{
		dashboardGroup.GET("/", dashService.BrowserDashboard)
		dashboardGroup.GET("/runs", dashService.GetAll)
		dashboardGroup.GET("/runs/:id", dashService.GetID)
		dashboardGroup.GET("/count", dashService.RunsCountEndpoint)
		dashboardGroup.GET("/failures", dashService.Failures)
	}
	return route
}

func healthHandler(c *gin.Context) {
	status := gin.H{"status": "healthy", "target": probeConfig.BaseURL}
	if sqlDb, err := database.DB(); err != nil || sqlDb.Ping() != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	status["database"] = "connected"
	c.JSON(http.StatusOK, status)
}

func listChecks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"result": checks.Names()})
}

// lastRun serves the redis-cached summary of the most recent run.
func lastRun(c *gin.Context) {
	run, err := checkService.LastRunSummary()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "message": "no cached run"})
		return
	}
	c.JSON(http.StatusOK, run)
}

type runRequest struct {
	Checks []string `json:"checks"`
}

// triggerRun runs the selected checks synchronously and returns the run.
func triggerRun(c *gin.Context) {
	var req runRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": err.Error()})
			return
		}
	}
	run, err := checkService.Run(c.Request.Context(), req.Checks...)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": err.Error()})
		return
	}
	status := http.StatusOK
	if !run.Passed {
		status = http.StatusConflict
	}
	c.JSON(status, run)
}

// startMockBackend serves the built-in mock on a loopback port and points
// the checks at it.
func startMockBackend() {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		logrusLogger.Fatalf("could not start mock backend: %v", err)
	}
	mock := NewMockCataloro(probeConfig)
	go func() {
		if err := http.Serve(listener, mock.Engine()); err != nil {
			logrusLogger.Printf("mock backend stopped: %v", err)
		}
	}()
	probeConfig.BaseURL = fmt.Sprintf("http://%s/api/", listener.Addr())
	checkService.Config = probeConfig
	logrusLogger.Printf("mock cataloro backend listening on %s", listener.Addr())
}

func main() {
	oneShot := flag.Bool("run", false, "run the checks once, print the verdict and exit 0/1")
	only := flag.String("checks", "", "comma separated subset of checks to run")
	mock := flag.Bool("mock", false, "probe the built-in mock backend instead of a live one")
	flag.Parse()

	if *mock {
		probeConfig.UseMock = true
	}
	if probeConfig.UseMock {
		startMockBackend()
	}

	if *oneShot {
		var names []string
		if *only != "" {
			names = strings.Split(*only, ",")
		}
		run, err := checkService.Run(context.Background(), names...)
		if err != nil {
			logrusLogger.Fatalf("probe run failed to start: %v", err)
		}
		if !run.Passed {
			os.Exit(1)
		}
		os.Exit(0)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = probeConfig.Port
	}
	if err := GetMainEngine().Run(":" + port); err != nil {
		logrusLogger.Fatalf("server stopped: %v", err)
	}
}
