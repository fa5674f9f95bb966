package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/code-server-devservice"
	projectConfigDir = ".devservice"
	configFileName   = "config.yaml"
)

// LoadConfig layers the defaults, the user file, the project file and, when
// explicitPath is not empty, that file. Missing user and project files are
// skipped; a missing explicit file is an error.
func LoadConfig(explicitPath string) (Config, error) {
	config := GetDefaultConfig()

	for _, locate := range []func() (string, error){getUserConfigPath, getProjectConfigPath} {
		path, err := locate()
		if err != nil {
			// Optional layers; nothing to merge.
			continue
		}
		overlay, err := loadConfigFromFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", path, err)
		}
		config = mergeConfigs(config, overlay)
	}

	if explicitPath != "" {
		overlay, err := loadConfigFromFile(explicitPath)
		if err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", explicitPath, err)
		}
		config = mergeConfigs(config, overlay)
	}

	if config.WorkspaceDir == "" {
		if wd, err := osGetwd(); err == nil {
			config.WorkspaceDir = wd
		}
	}
	if abs, err := filepath.Abs(config.WorkspaceDir); err == nil && config.WorkspaceDir != "" {
		config.WorkspaceDir = abs
	}

	return config, nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a Config from a YAML file.
func loadConfigFromFile(filePath string) (Config, error) {
	var config Config
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Only fields set in
// overlay win; containerEnv is merged key by key.
func mergeConfigs(base, overlay Config) Config {
	merged := base

	ds, ods := &merged.DevServices, overlay.DevServices
	if ods.Enabled != nil {
		ds.Enabled = ods.Enabled
	}
	if ods.Port != nil {
		ds.Port = ods.Port
	}
	if ods.ImageName != "" {
		ds.ImageName = ods.ImageName
	}
	if ods.Shared != nil {
		ds.Shared = ods.Shared
	}
	if ods.ServiceName != "" {
		ds.ServiceName = ods.ServiceName
	}
	if ods.ImageRepo != "" {
		ds.ImageRepo = ods.ImageRepo
	}
	if ods.Timeout != 0 {
		ds.Timeout = ods.Timeout
	}
	if len(ods.ContainerEnv) > 0 {
		env := maps.Clone(ds.ContainerEnv)
		if env == nil {
			env = make(map[string]string, len(ods.ContainerEnv))
		}
		maps.Copy(env, ods.ContainerEnv)
		ds.ContainerEnv = env
	}

	if overlay.LaunchMode != "" {
		merged.LaunchMode = overlay.LaunchMode
	}
	if overlay.SharedNetwork != nil {
		merged.SharedNetwork = overlay.SharedNetwork
	}
	if overlay.WorkspaceDir != "" {
		merged.WorkspaceDir = overlay.WorkspaceDir
	}
	if overlay.UI.Listen != "" {
		merged.UI.Listen = overlay.UI.Listen
	}
	if overlay.UI.Disabled {
		merged.UI.Disabled = true
	}
	if overlay.Log.Level != "" {
		merged.Log.Level = overlay.Log.Level
	}

	return merged
}
