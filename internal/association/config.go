package association

import (
	"context"
	"errors"
	"fmt"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/service"
	"github.com/autopeer-io/association/internal/association/notifier"
	"github.com/autopeer-io/association/internal/association/observer"
	"github.com/autopeer-io/association/internal/association/server"
	apihttp "github.com/autopeer-io/association/internal/association/server/http"
	"github.com/autopeer-io/association/internal/association/storage"
	"github.com/autopeer-io/association/pkg/mqtt"
	"github.com/autopeer-io/association/pkg/mqtt/topic"
	"github.com/autopeer-io/association/pkg/options"
)

type Config struct {
	HttpOptions    *options.HttpOptions
	MqttOptions    *options.MqttOptions
	S3Options      *options.S3Options
	RedisOptions   *options.RedisOptions
	SqliteOptions  *options.SqliteOptions
	PeerOptions    *options.PeerOptions
	FeatureOptions *options.FeatureOptions
}

// NewServer connects every adapter and assembles the lifecycle service.
func (cfg *Config) NewServer(ctx context.Context) (*AssociationServer, error) {
	// 1. Persistence
	store, err := storage.NewSQLite(ctx, cfg.SqliteOptions)
	if err != nil {
		return nil, err
	}

	// 2. Derived resources
	profiles, err := storage.NewProfileStore(cfg.S3Options)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := profiles.CheckBucket(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to init profile store: %w", err)
	}

	// 3. Notification sinks
	mqttClient, err := mqtt.NewClient(cfg.MqttOptions.ToClientConfig())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to init mqtt client: %w", err)
	}

	stream, err := notifier.NewRedisStream(ctx, cfg.RedisOptions)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to init stream sink: %w", err)
	}

	// 4. Core
	registry := cfg.NewRegistry(mqttClient, store, stream)
	svc := service.New(store, registry, profiles)

	// 5. Ingress
	ready := func(ctx context.Context) error {
		if !mqttClient.IsConnected() {
			return errors.New("mqtt client is not connected")
		}
		return store.Ping(ctx)
	}
	httpSrv := apihttp.NewServer(cfg.HttpOptions, svc, ready)

	return &AssociationServer{
		serverManager: server.NewManager(httpSrv),
		mqtt:          mqttClient,
		store:         store,
		stream:        stream,
	}, nil
}

// NewRegistry registers the notification handlers in dispatch order.
// Handlers hold the given sinks for the lifetime of the process.
func (cfg *Config) NewRegistry(publisher core.Publisher, vins core.VinLookup, sink core.StreamSink) *observer.Registry {
	authClient := notifier.NewRESTClient(cfg.PeerOptions.AuthBaseURL, cfg.PeerOptions.Timeout)
	messageClient := notifier.NewRESTClient(cfg.PeerOptions.DeviceMessageBaseURL, cfg.PeerOptions.Timeout)
	topics := topic.NewBuilder(cfg.MqttOptions.TopicRoot)

	r := observer.NewRegistry()
	r.Register(notifier.NewAuthDeactivationHandler(authClient), observer.PriorityAuthDeactivation)
	r.Register(notifier.NewConfigPushHandler(messageClient, cfg.FeatureOptions.ConfigPush), observer.PriorityConfigPush)
	r.Register(notifier.NewEventBusHandler(publisher, vins, topics, cfg.MqttOptions.QoS), observer.PriorityEventBus)
	r.Register(notifier.NewStreamHandler(sink), observer.PriorityStream)
	return r
}
