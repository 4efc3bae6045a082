package common

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/citypulse/media-services/constants"
	"github.com/citypulse/media-services/util"
	"github.com/op/go-logging"
	"github.com/spf13/viper"
)

type S3Credentials struct {
	Host      string
	KeyID     string
	SecretKey string
}

type Config struct {
	BaseWorkingDir    string
	ConfigName        string
	FFmpegPath        string
	FFprobePath       string
	IngestBucket      string
	InvocationTimeout time.Duration
	LogDir            string
	LogLevel          logging.Level
	MinSizeToCompress int64
	NsqLookupd        string
	NsqURL            string
	PublicMediaURL    string
	RedisDefaultDB    int
	RedisPassword     string
	RedisURL          string
	S3Credentials     S3Credentials
	TempDir           string
	UseSSL            bool
}

var logLevels = map[string]logging.Level{
	"CRITICAL": logging.CRITICAL,
	"ERROR":    logging.ERROR,
	"WARNING":  logging.WARNING,
	"NOTICE":   logging.NOTICE,
	"INFO":     logging.INFO,
	"DEBUG":    logging.DEBUG,
}

// Returns a new config based on ENV var MEDIA_SERVICES_CONFIG
func NewConfig() *Config {
	config := loadConfig()
	config.expandPaths()
	config.sanityCheck()
	config.makeDirs()
	return config
}

func loadConfig() *Config {
	configDir, envName := getEnvVars()
	v := viper.New()
	v.AddConfigPath(configDir)
	v.SetConfigName(".env." + envName)
	v.SetConfigType("env")
	v.SetDefault("FFMPEG_PATH", "ffmpeg")
	v.SetDefault("FFPROBE_PATH", "ffprobe")
	v.SetDefault("INVOCATION_TIMEOUT", constants.DefaultInvocationTimeout)
	err := v.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("Fatal error config file: %s \n", err))
	}
	return &Config{
		BaseWorkingDir:    v.GetString("BASE_WORKING_DIR"),
		ConfigName:        envName,
		FFmpegPath:        v.GetString("FFMPEG_PATH"),
		FFprobePath:       v.GetString("FFPROBE_PATH"),
		IngestBucket:      v.GetString("INGEST_BUCKET"),
		InvocationTimeout: v.GetDuration("INVOCATION_TIMEOUT"),
		LogDir:            v.GetString("LOG_DIR"),
		LogLevel:          logLevels[v.GetString("LOG_LEVEL")],
		MinSizeToCompress: v.GetInt64("MIN_SIZE_TO_COMPRESS"),
		NsqLookupd:        v.GetString("NSQ_LOOKUPD"),
		NsqURL:            v.GetString("NSQ_URL"),
		PublicMediaURL:    v.GetString("PUBLIC_MEDIA_URL"),
		RedisDefaultDB:    v.GetInt("REDIS_DEFAULT_DB"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		RedisURL:          v.GetString("REDIS_URL"),
		S3Credentials: S3Credentials{
			Host:      v.GetString("S3_HOST"),
			KeyID:     v.GetString("S3_KEY"),
			SecretKey: v.GetString("S3_SECRET"),
		},
		TempDir: v.GetString("TEMP_DIR"),
		UseSSL:  v.GetBool("S3_USE_SSL"),
	}
}

func getEnvVars() (string, string) {
	configDir := getRequiredEnvVar("MEDIA_CONFIG_DIR")
	envName := getRequiredEnvVar("MEDIA_SERVICES_CONFIG")
	return configDir, envName
}

func getRequiredEnvVar(varName string) string {
	value := os.Getenv(varName)
	if value == "" {
		panic(fmt.Sprintf("Required env var %s not set", varName))
	}
	return value
}

// Expand ~ to home dir in path settings.
func (c *Config) expandPaths() {
	c.BaseWorkingDir = expandPath(c.BaseWorkingDir)
	c.LogDir = expandPath(c.LogDir)
	c.TempDir = expandPath(c.TempDir)
}

func expandPath(dirName string) string {
	dir, err := util.ExpandTilde(dirName)
	if err != nil {
		panic(err)
	}
	return dir
}

func (c *Config) sanityCheck() {
	// If this is dev or test env, don't let config point to any
	// external services. This prevents a dev/test installation from
	// touching media in demo and prod buckets.
	if c.ConfigName == "dev" || c.ConfigName == "test" {
		if c.S3Credentials.Host != "" && c.S3Credentials.Host != "localhost:9000" && c.S3Credentials.Host != "127.0.0.1:9000" {
			panic(fmt.Sprintf("S3 host %s is not safe for config %s", c.S3Credentials.Host, c.ConfigName))
		}
	}
}

func (c *Config) makeDirs() {
	dirs := []string{
		c.LogDir,
		c.TempDir,
	}
	for _, dir := range dirs {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			panic(err)
		}
	}
}

// ToJSON is for logging config at startup. Credentials are masked.
func (c *Config) ToJSON() string {
	copyOfConfig := *c
	copyOfConfig.RedisPassword = "[masked]"
	copyOfConfig.S3Credentials.KeyID = "[masked]"
	copyOfConfig.S3Credentials.SecretKey = "[masked]"
	data, _ := json.Marshal(copyOfConfig)
	return string(data)
}
