package main

import (
	"os"
	"strings"

	gateway "github.com/cataloro/probe/apigateway"
	"github.com/cataloro/probe/cataloro"
	"github.com/cataloro/probe/checks"
	"github.com/cataloro/probe/dashboard"
	"github.com/cataloro/probe/utils"
	"github.com/go-redis/redis/v7"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var logrusLogger = logrus.New()
var probeConfig cataloro.ProbeConfig
var database *gorm.DB
var redisClient *redis.Client
var checkService *checks.Service
var dashService dashboard.Service
var adminAuth gateway.AdminAuthConfig

func isTestRun() bool {
	return strings.HasSuffix(os.Args[0], ".test")
}

// parseConfig loads the json config file. A missing file is not an error;
// everything has a default.
func parseConfig(data *cataloro.ProbeConfig) error {
	path := os.Getenv("PROBE_CONFIG")
	if path == "" {
		path = "probe.json"
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logrusLogger.Printf("no config file at %s, using defaults", path)
			return nil
		}
		return err
	}
	if err := json.Unmarshal(raw, data); err != nil {
		logrusLogger.Printf("Error in parsing config file: %v", err)
		return err
	}
	logrusLogger.Printf("Loaded config from %s", path)
	return nil
}

func init() {
	var err error

	logrusLogger.Level = logrus.DebugLevel
	logrusLogger.SetReportCaller(true)
	logrusLogger.Out = os.Stderr

	if err = parseConfig(&probeConfig); err != nil {
		logrusLogger.Fatalf("error in parsing config file: %v", err)
	}
	probeConfig.Defaults()

	dbpath := probeConfig.DatabasePath
	if isTestRun() {
		if tmp, err := os.CreateTemp("", "probe-test-*.db"); err == nil {
			dbpath = tmp.Name()
			_ = tmp.Close()
		}
	}

	database, err = utils.Database(dbpath)
	if err != nil {
		logrusLogger.Fatalf("error in connecting to db: %v", err)
	}
	if err := dashboard.Migrate(database); err != nil {
		logrusLogger.Fatalf("error in migrations: %v", err)
	}

	if probeConfig.RedisAddr != "" {
		redisClient = utils.GetRedis(probeConfig.RedisAddr)
		if err := redisClient.Ping().Err(); err != nil {
			logrusLogger.Printf("redis unavailable at %s: %v", probeConfig.RedisAddr, err)
			redisClient = nil
		}
	}

	adminAuth = gateway.AdminAuthConfig{Key: probeConfig.AdminKey, Debug: probeConfig.UseMock || isTestRun()}

	dashService = dashboard.Service{Db: database}
	checkService = &checks.Service{
		Config: probeConfig,
		Store:  dashService,
		Redis:  redisClient,
		Logger: logrusLogger,
	}
}
