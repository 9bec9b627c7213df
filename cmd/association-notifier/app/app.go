package app

import (
	"fmt"

	"github.com/spf13/viper"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/association/cmd/association-notifier/app/options"
	"github.com/autopeer-io/association/pkg/app"
	"github.com/autopeer-io/association/pkg/log"
)

const (
	commandName = "association-notifier"
	commandDesc = `The association notifier owns the lifecycle of device-to-vehicle
associations. Every committed transition is fanned out, in a fixed order, to
device-auth deactivation, the device-message service, the MQTT event bus and
the Redis stream.`
)

func NewApp() *app.App {
	opts := options.NewNotifierOptions()
	application := app.NewApp(
		commandName,
		"Launch the association lifecycle service",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
		app.WithCommands(newHandlersCommand(opts)),
		app.WithConfigWatch(reloadLogLevel),
	)
	return application
}

func run(opts *options.NotifierOptions) app.RunFunc {
	return func() error {
		ctx := genericapiserver.SetupSignalContext()

		log.Init(opts.Log)

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create association server: %w", err)
		}

		return server.Run(ctx)
	}
}

func reloadLogLevel(v *viper.Viper) {
	level := v.GetString("log.level")
	if err := log.SetLevel(level); err != nil {
		log.Error(err, "Ignoring log level from reloaded configuration")
		return
	}
	log.Info("Log level reloaded", "level", level)
}
