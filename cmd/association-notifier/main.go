package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/association/cmd/association-notifier/app"
)

func main() {
	app.NewApp().Run()
}
