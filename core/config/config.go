package config

import (
	_ "embed"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/josephlewis42/sish/core/shell"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
	AppLogName        = "app.log"
	DefaultDirName    = ".sish"
)

type Configuration struct {
	configFs afero.Fs

	Prompt                string `json:"prompt"`
	ColorPrompt           bool   `json:"color_prompt"`
	HistorySize           int    `json:"history_size" validate:"gte=1,lte=100000"`
	MaxStages             int    `json:"max_stages" validate:"gte=1"`
	MaxArgs               int    `json:"max_args" validate:"gte=1"`
	CommandTimeoutSeconds int    `json:"command_timeout_seconds" validate:"gte=0"`
	EventLog              bool   `json:"event_log"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// Limits returns the parser limits.
func (c *Configuration) Limits() shell.Limits {
	return shell.Limits{
		MaxStages: c.MaxStages,
		MaxArgs:   c.MaxArgs,
	}
}

// CommandTimeout returns the maximum run time of a line, zero if unlimited.
func (c *Configuration) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSeconds) * time.Second
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		// Defaults that weren't loaded from disk have nowhere to write.
		return afero.NewMemMapFs()
	}
	return c.configFs
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(AppLogName, os.O_RDONLY, 0600)
}

// Default returns the built-in configuration.
func Default() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	if err := out.Validate(); err != nil {
		panic(err)
	}
	return &out
}

// DefaultDir returns the configuration directory used when none is given.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDirName
	}
	return home + string(os.PathSeparator) + DefaultDirName
}
