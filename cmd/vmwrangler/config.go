package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	survey "github.com/AlecAivazis/survey/v2"
	"github.com/virtadm/vmwrangler/configs"
	"github.com/virtadm/vmwrangler/pkg/vcenter"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// vcenterFileConfig is the YAML structure for the --config file.
type vcenterFileConfig struct {
	VCenter struct {
		Host     string `yaml:"host"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Port     int    `yaml:"port"`
		Insecure bool   `yaml:"insecure"`
	} `yaml:"vcenter"`
}

// resolveConfig builds the connection config from, in ascending
// precedence: the YAML config file, VMW_* environment variables, and
// command-line flags. A missing password is prompted for interactively.
func resolveConfig() (*vcenter.Config, error) {
	cfg := &vcenter.Config{Insecure: configs.Defaults.VCenter.Insecure}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		var file vcenterFileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configFile, err)
		}
		cfg.Host = file.VCenter.Host
		cfg.Username = file.VCenter.Username
		cfg.Password = file.VCenter.Password
		cfg.Port = file.VCenter.Port
		cfg.Insecure = file.VCenter.Insecure
	}

	if v := os.Getenv("VMW_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("VMW_USER"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("VMW_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("VMW_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid VMW_PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("VMW_INSECURE"); v != "" {
		insecure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid VMW_INSECURE %q: %w", v, err)
		}
		cfg.Insecure = insecure
	}

	if flagHost != "" {
		cfg.Host = flagHost
	}
	if flagUser != "" {
		cfg.Username = flagUser
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if flagInsecure {
		cfg.Insecure = true
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("no vCenter host configured (use --host, VMW_HOST or a config file)")
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("no vCenter username configured (use --user, VMW_USER or a config file)")
	}

	if cfg.Password == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, fmt.Errorf("no vCenter password configured (set VMW_PASSWORD or a config file)")
		}
		prompt := &survey.Password{
			Message: fmt.Sprintf("Password for %s@%s:", cfg.Username, cfg.Host),
		}
		if err := survey.AskOne(prompt, &cfg.Password, survey.WithValidator(survey.Required)); err != nil {
			return nil, err
		}
	}

	level := slog.LevelInfo
	if flagDebug {
		level = slog.LevelDebug
	}
	cfg.Logger = newPrettyLogger(os.Stderr, level)
	return cfg, nil
}

// confirm asks the user before destructive operations. The --yes flag
// skips the prompt; a non-interactive session without --yes refuses.
func confirm(message string) (bool, error) {
	if flagYes {
		return true, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("refusing %q without --yes in a non-interactive session", message)
	}
	var ok bool
	err := survey.AskOne(&survey.Confirm{Message: message}, &ok)
	return ok, err
}
