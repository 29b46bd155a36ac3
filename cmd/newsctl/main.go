package main

import (
	"fmt"
	"os"

	"github.com/johnrirwin/smartnews/internal/app"
	"github.com/johnrirwin/smartnews/internal/config"
)

func main() {
	root := newRootCmd(func() (*app.App, error) {
		return app.New(config.LoadFromEnv())
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
