// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/researchplatform/rpctl/pkg/errors"
)

const (
	// DefaultNASIP is the address of the NAS hosting volumes and backups.
	DefaultNASIP = "192.168.0.134"
	// DefaultHostPort is the host port published for the app service.
	DefaultHostPort = 5000
	// ContainerPort is the port the app listens on inside its container.
	ContainerPort = 5000
	// DefaultComposeFile is the compose file name inside the project directory.
	DefaultComposeFile = "docker-compose.yml"
	// DefaultConfigFile is looked up in the project directory when --config is unset.
	DefaultConfigFile = ".rpctl.yaml"
	// DefaultEnvFile holds the application credentials.
	DefaultEnvFile = ".env"
	// DefaultAppService is the compose service running the web application.
	DefaultAppService = "app"
	// DefaultRedisService is the compose service running Redis.
	DefaultRedisService = "redis"
	// DefaultHealthPath is the application health endpoint.
	DefaultHealthPath = "/health"
	// DefaultRedisAddr is where the redis service is published on the host.
	DefaultRedisAddr = "127.0.0.1:6379"
	// DefaultWatchAddr is the listen address of the watch server.
	DefaultWatchAddr = ":9090"
	// DefaultBackupBucket is the MinIO bucket used for off-host backups.
	DefaultBackupBucket = "research-backups"
)

// Config is the resolved rpctl configuration.
type Config struct {
	ProjectDir   string `yaml:"projectDir,omitempty" json:"projectDir,omitempty" env:"RP_PROJECT_DIR"`
	ComposeFile  string `yaml:"composeFile,omitempty" json:"composeFile,omitempty" env:"RP_COMPOSE_FILE"`
	ProjectName  string `yaml:"projectName,omitempty" json:"projectName,omitempty" env:"COMPOSE_PROJECT_NAME"`
	EnvFile      string `yaml:"envFile,omitempty" json:"envFile,omitempty" env:"RP_ENV_FILE"`
	AppService   string `yaml:"appService,omitempty" json:"appService,omitempty" env:"RP_APP_SERVICE"`
	RedisService string `yaml:"redisService,omitempty" json:"redisService,omitempty" env:"RP_REDIS_SERVICE"`
	NASIP        string `yaml:"nasIP,omitempty" json:"nasIP,omitempty" env:"NAS_IP"`
	HostPort     int    `yaml:"hostPort,omitempty" json:"hostPort,omitempty" env:"HOST_PORT"`
	HealthPath   string `yaml:"healthPath,omitempty" json:"healthPath,omitempty" env:"RP_HEALTH_PATH"`
	LogDir       string `yaml:"logDir,omitempty" json:"logDir,omitempty" env:"RP_LOG_DIR"`
	ExportDir    string `yaml:"exportDir,omitempty" json:"exportDir,omitempty" env:"RP_EXPORT_DIR"`
	WatchAddr    string `yaml:"watchAddr,omitempty" json:"watchAddr,omitempty" env:"RP_WATCH_ADDR"`

	Redis  Redis  `yaml:"redis,omitempty" json:"redis,omitempty" envPrefix:"RP_REDIS_"`
	Backup Backup `yaml:"backup,omitempty" json:"backup,omitempty" envPrefix:"RP_BACKUP_"`
}

// Redis holds the connection settings for the redis service as seen from the host.
type Redis struct {
	Addr     string `yaml:"addr,omitempty" json:"addr,omitempty" env:"ADDR"`
	Password string `yaml:"password,omitempty" json:"password,omitempty" env:"PASSWORD"`
	DB       int    `yaml:"db,omitempty" json:"db,omitempty" env:"DB"`
}

// Backup holds local archive settings and the optional off-host targets.
type Backup struct {
	Dir  string `yaml:"dir,omitempty" json:"dir,omitempty" env:"DIR"`
	Keep int    `yaml:"keep,omitempty" json:"keep,omitempty" env:"KEEP"`

	S3  S3  `yaml:"s3,omitempty" json:"s3,omitempty" envPrefix:"S3_"`
	OCI OCI `yaml:"oci,omitempty" json:"oci,omitempty" envPrefix:"OCI_"`
}

// S3 describes the S3-compatible bucket on the NAS. An empty Endpoint
// defaults to port 9000 on the NAS.
type S3 struct {
	Endpoint  string `yaml:"endpoint,omitempty" json:"endpoint,omitempty" env:"ENDPOINT"`
	Bucket    string `yaml:"bucket,omitempty" json:"bucket,omitempty" env:"BUCKET"`
	AccessKey string `yaml:"accessKey,omitempty" json:"accessKey,omitempty" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secretKey,omitempty" json:"secretKey,omitempty" env:"SECRET_KEY"`
	UseSSL    bool   `yaml:"useSSL,omitempty" json:"useSSL,omitempty" env:"USE_SSL"`
}

// OCI describes the registry repository backups can be pushed to.
type OCI struct {
	Reference string `yaml:"reference,omitempty" json:"reference,omitempty" env:"REFERENCE"`
	PlainHTTP bool   `yaml:"plainHTTP,omitempty" json:"plainHTTP,omitempty" env:"PLAIN_HTTP"`
}

// Defaults returns the lowest-priority configuration layer.
func Defaults() *Config {
	return &Config{
		ProjectDir:   ".",
		ComposeFile:  DefaultComposeFile,
		EnvFile:      DefaultEnvFile,
		AppService:   DefaultAppService,
		RedisService: DefaultRedisService,
		NASIP:        DefaultNASIP,
		HostPort:     DefaultHostPort,
		HealthPath:   DefaultHealthPath,
		LogDir:       "logs",
		ExportDir:    "exports",
		WatchAddr:    DefaultWatchAddr,
		Redis: Redis{
			Addr: DefaultRedisAddr,
		},
		Backup: Backup{
			Dir: "backups",
			S3: S3{
				Bucket: DefaultBackupBucket,
			},
		},
	}
}

// Path resolves p against the project directory unless it is already absolute.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}

// ComposePath returns the absolute or project-relative compose file path.
func (c *Config) ComposePath() string {
	return c.Path(c.ComposeFile)
}

// EnvPath returns the location of the application .env file.
func (c *Config) EnvPath() string {
	return c.Path(c.EnvFile)
}

// BaseURL is the root URL of the app service on the host.
func (c *Config) BaseURL() string {
	return "http://localhost:" + strconv.Itoa(c.HostPort)
}

// HealthURL is the full URL of the application health endpoint.
func (c *Config) HealthURL() string {
	u, err := url.JoinPath(c.BaseURL(), c.HealthPath)
	if err != nil {
		return c.BaseURL() + c.HealthPath
	}
	return u
}

// S3Endpoint returns the configured endpoint or the NAS default.
func (c *Config) S3Endpoint() string {
	if c.Backup.S3.Endpoint != "" {
		return c.Backup.S3.Endpoint
	}
	return net.JoinHostPort(c.NASIP, "9000")
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if c.HostPort < 1 || c.HostPort > 65535 {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("host port %d out of range 1-65535", c.HostPort),
			map[string]any{"hostPort": c.HostPort})
	}
	if net.ParseIP(c.NASIP) == nil {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid NAS IP %q", c.NASIP),
			map[string]any{"nasIP": c.NASIP})
	}
	if c.AppService == "" || c.RedisService == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "service names must not be empty")
	}
	if c.ComposeFile == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "compose file must not be empty")
	}
	if c.Backup.Keep < 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "backup retention must not be negative")
	}
	if _, _, err := net.SplitHostPort(c.Redis.Addr); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, fmt.Sprintf("invalid redis address %q", c.Redis.Addr), err)
	}
	return nil
}

// Redacted returns a copy with secrets masked, suitable for printing.
func (c *Config) Redacted() *Config {
	cp := *c
	cp.Redis.Password = Mask(cp.Redis.Password)
	cp.Backup.S3.AccessKey = Mask(cp.Backup.S3.AccessKey)
	cp.Backup.S3.SecretKey = Mask(cp.Backup.S3.SecretKey)
	return &cp
}
