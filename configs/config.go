// Package configs provides library defaults loaded from an embedded YAML file.
// All hardcoded values live in defaults.yaml.
package configs

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Defaults holds all library default values (loaded from defaults.yaml at startup).
var Defaults LibDefaults

func init() {
	if err := yaml.Unmarshal(defaultsYAML, &Defaults); err != nil {
		panic("vmwrangler: invalid defaults.yaml: " + err.Error())
	}
}

// LibDefaults holds all configurable library defaults.
type LibDefaults struct {
	VCenter VCenterDefaults `yaml:"vcenter"`
	Task    TaskDefaults    `yaml:"task"`
}

// VCenterDefaults holds vCenter connection defaults.
type VCenterDefaults struct {
	Port     int    `yaml:"port"`
	Insecure bool   `yaml:"insecure"`
	SDKPath  string `yaml:"sdk_path"`
}

// TaskDefaults holds remote task handling defaults.
type TaskDefaults struct {
	Progress bool `yaml:"progress"`
}
