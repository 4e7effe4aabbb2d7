package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "FIELDPLAN_"

type Application struct {
	Host     string   `koanf:"host"`
	Server   Server   `koanf:"server"`
	Database Database `koanf:"db"`
	Schedule Schedule `koanf:"schedule"`
	Metrics  Metrics  `koanf:"metrics"`
}

type Server struct {
	Port int `koanf:"port"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

// Schedule holds the defaults applied when a request or activity omits them.
type Schedule struct {
	WorkingDays     string `koanf:"workingdays"`
	IncludeSaturday bool   `koanf:"includesaturday"`
	IncludeSunday   bool   `koanf:"includesunday"`
	ForecastMethod  string `koanf:"forecastmethod"`
	// MaxSpanDays caps the calendar days of a calculation or an activity. It can only lower the built-in limit.
	MaxSpanDays int `koanf:"maxspandays"`
}

type Metrics struct {
	Enabled bool `koanf:"enabled"`
}

func Defaults() Application {
	return Application{
		Host: "http://localhost:3000",
		Server: Server{
			Port: 8181,
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "fieldplan",
			Pass:   "",
			Name:   "fieldplan",
			Schema: "fieldplan",
		},
		Schedule: Schedule{
			WorkingDays:    "weekdays_only",
			ForecastMethod: "constant",
			MaxSpanDays:    3660,
		},
		Metrics: Metrics{
			Enabled: true,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
