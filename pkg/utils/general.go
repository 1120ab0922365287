package utils

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadConfig reads a .env file from the given path if one exists. Missing
// files are not an error; real deployments configure through the
// environment directly.
func LoadConfig(path string) {
	envFile := filepath.Join(path, ".env")
	if _, err := os.Stat(envFile); err != nil {
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		logrus.Warnf("[APP] Failed to load %s: %v", envFile, err)
	}
}

// CreateFolder ensures every given directory exists.
func CreateFolder(folders ...string) error {
	for _, folder := range folders {
		if err := os.MkdirAll(folder, 0755); err != nil {
			return err
		}
	}
	return nil
}

// PanicIfNeeded panics on a non-nil error so the recovery middleware can
// translate it into an HTTP response. Controllers use this instead of
// returning errors up the fiber chain.
func PanicIfNeeded(err any, message ...string) {
	if err != nil {
		if len(message) > 0 && err == "record not found" {
			panic(message[0])
		}
		panic(err)
	}
}

// RemoveFile deletes files, ignoring ones that are already gone.
func RemoveFile(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
