package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadDotEnv loads environment variables from the given files, ".env" by
// default. Missing files are ignored and variables already set win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			logrus.Warnf("unable to load %s: %v", p, err)
		}
	}
}
