package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spacesedan/verity/config"
	"github.com/spacesedan/verity/internal/logging"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.1.0-default"

	envFlag = &cli.StringFlag{
		Name:    "env",
		Usage:   "Environment whose config/envs/.env.<env> file is loaded",
		Value:   "dev",
		EnvVars: []string{"APP_ENV"},
	}

	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level [debug, info, warn, error]",
		Value: "info",
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:            "verity",
		Version:         version,
		Compiled:        time.Now(),
		HideHelpCommand: true,
		Usage:           "Score news headlines for emotional and sentiment bias",
		Flags: []cli.Flag{
			envFlag,
			logLevelFlag,
		},
		Commands: []*cli.Command{
			serveCmd,
			analyzeCmd,
			wordCmd,
		},
		Before: func(c *cli.Context) error {
			// installed before the env file loads so its warnings are formatted too
			logging.InitLogger(c.App.ErrWriter, c.String(logLevelFlag.Name))
			config.LoadEnv(c.String(envFlag.Name))

			level := c.String(logLevelFlag.Name)
			if !c.IsSet(logLevelFlag.Name) {
				if fromEnv, ok := os.LookupEnv("LOG_LEVEL"); ok {
					level = fromEnv
				}
			}
			logging.InitLogger(c.App.ErrWriter, level)
			return nil
		},
	}
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(v)
	case formatYAML, "yml":
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
