package appdirs

import (
	"os"
	"path/filepath"
)

const (
	appDirName = "leadplan"
)

func DataDir() (string, error) {
	if override := os.Getenv("LEADPLAN_DATA_DIR"); override != "" {
		return override, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDirName), nil
}

func SettingsPath(dataDir string) string {
	return filepath.Join(dataDir, "settings.json")
}

func SecretsPath(dataDir string) string {
	return filepath.Join(dataDir, "secrets.enc")
}

func MasterKeyPath(dataDir string) string {
	return filepath.Join(dataDir, "master.key")
}
