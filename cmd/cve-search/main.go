package main

import (
	"log"
	"os"

	"k8s.io/utils/clock"

	"github.com/aquasecurity/cve-search/pkg"
)

var (
	version = "0.0.1"
)

func main() {
	ac := pkg.AppConfig{
		Clock: clock.RealClock{},
	}

	app := ac.NewApp(version)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}
