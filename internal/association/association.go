package association

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/autopeer-io/association/internal/association/notifier"
	"github.com/autopeer-io/association/internal/association/server"
	"github.com/autopeer-io/association/internal/association/storage"
	"github.com/autopeer-io/association/pkg/log"
	"github.com/autopeer-io/association/pkg/mqtt"
)

// disconnectTimeout bounds the MQTT disconnect on shutdown.
const disconnectTimeout = 5 * time.Second

// AssociationServer is the main application struct of the association service.
type AssociationServer struct {
	serverManager *server.Manager
	mqtt          mqtt.Client
	store         *storage.SQLite
	stream        *notifier.RedisStream
}

// Run starts the application components and blocks until ctx is done.
func (a *AssociationServer) Run(ctx context.Context) error {
	log.Info("Starting association service...")
	defer a.close()

	// 1. Event bus connection (background reconnects)
	if err := a.mqtt.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mqtt client: %w", err)
	}

	// 2. Servers (blocking)
	return a.serverManager.Start(ctx)
}

func (a *AssociationServer) close() {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	a.mqtt.Disconnect(ctx)

	err := errors.Join(a.stream.Close(), a.store.Close())
	if err != nil {
		log.Error(err, "Failed to release resources")
	}
	_ = log.Sync()
}
