package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/jeandeaual/go-locale"

	"github.com/egoavara/mapstore-plugins/cmd"
	"github.com/egoavara/mapstore-plugins/internal/config"
	"github.com/egoavara/mapstore-plugins/internal/i18n"
)

//go:embed locales/*.json
var localeFS embed.FS

func main() {
	if err := i18n.Init(localeFS, getLocale()); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	cmd.Execute()
}

// getLocale returns the locale based on config
func getLocale() string {
	configLocale := config.GetLocale()

	// If "auto", detect system locale
	if configLocale == "auto" {
		userLocale, err := locale.GetLocale()
		if err != nil || userLocale == "" {
			return "en-US"
		}
		return userLocale
	}

	return configLocale
}
