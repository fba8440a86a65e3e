package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// RequiredArgs is the number of positional arguments the download command takes.
const RequiredArgs = 6

const (
	EngineAWS   = "aws"
	EngineMinio = "minio"
)

type Config struct {
	ApiURL     string
	AccessKey  string
	SecretKey  string
	BucketName string
	Region     string

	Files   []string
	Folders []string

	Engine      string
	UseHTTP     bool
	MaxRetries  int
	Concurrency int
	PartSizeMB  int64
	Report      string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using environment variables only")
	}

	maxRetries, err := getEnvInt("MAX_RETRIES", 20)
	if err != nil {
		return nil, err
	}
	concurrency, err := getEnvInt("CONCURRENCY", 0)
	if err != nil {
		return nil, err
	}
	partSize, err := getEnvInt("PART_SIZE_MB", 5)
	if err != nil {
		return nil, err
	}
	useHTTP, err := getEnvBool("USE_HTTP", true)
	if err != nil {
		return nil, err
	}

	config := &Config{
		ApiURL:      getEnv("API_URL", ""),
		AccessKey:   getEnv("ACCESS_KEY", ""),
		SecretKey:   getEnv("SECRET_KEY", ""),
		BucketName:  getEnv("BUCKET_NAME", ""),
		Region:      getEnv("REGION", "us-east-1"),
		Engine:      getEnv("ENGINE", EngineAWS),
		UseHTTP:     useHTTP,
		MaxRetries:  maxRetries,
		Concurrency: concurrency,
		PartSizeMB:  int64(partSize),
		Report:      getEnv("REPORT", "none"),
	}

	return config, nil
}

// ApplyArgs fills the invocation-specific fields from the positional arguments:
// bucket, source keys, target folders, access key, secret key and service URL.
func (c *Config) ApplyArgs(args []string) error {
	if len(args) != RequiredArgs {
		return fmt.Errorf("expected %d arguments, got %d", RequiredArgs, len(args))
	}

	c.BucketName = strings.TrimSpace(args[0])
	c.Files = SplitList(args[1])
	c.Folders = SplitList(args[2])
	c.AccessKey = args[3]
	c.SecretKey = args[4]
	c.ApiURL = strings.TrimSpace(args[5])
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.BucketName == "" {
		errs = append(errs, errors.New("bucket name is empty"))
	}
	if len(c.Files) == 0 {
		errs = append(errs, errors.New("no source files given"))
	}
	if len(c.Folders) == 0 {
		errs = append(errs, errors.New("no target folders given"))
	}
	if c.Engine != EngineAWS && c.Engine != EngineMinio {
		errs = append(errs, fmt.Errorf("unknown engine %q", c.Engine))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries must not be negative"))
	}
	if c.PartSizeMB <= 0 {
		errs = append(errs, errors.New("part size must be positive"))
	}
	return errors.Join(errs...)
}

// SplitList splits a comma separated argument, trimming each segment and
// dropping empty ones.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
