package notifier

import (
	"context"
	"fmt"
	"net/url"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/model"
	"github.com/autopeer-io/association/internal/association/observer"
	"github.com/autopeer-io/association/pkg/log"
)

var _ observer.Handler = (*ConfigPushHandler)(nil)

// ConfigPushHandler tells the device, through the device-message service,
// that it has been disassociated.
type ConfigPushHandler struct {
	client  *RESTClient
	enabled bool
	logger  log.Logger
}

// NewConfigPushHandler creates the handler. enabled is fixed for the handler's lifetime.
func NewConfigPushHandler(client *RESTClient, enabled bool) *ConfigPushHandler {
	return &ConfigPushHandler{
		client:  client,
		enabled: enabled,
		logger:  log.WithName("config-push"),
	}
}

func (h *ConfigPushHandler) Name() string { return "config-push" }

func (h *ConfigPushHandler) FailurePolicy() observer.FailurePolicy { return observer.PolicyFatal }

func (h *ConfigPushHandler) Applicable(ev *model.AssociationEvent) bool {
	return h.enabled && ev.NewState == model.StateDisassociated
}

func (h *ConfigPushHandler) Handle(ctx context.Context, ev *model.AssociationEvent) error {
	if ev.HarmanID == "" {
		return fmt.Errorf("config push for association %d needs a harman id: %w", ev.AssociationID, core.ErrInvalidInput)
	}

	eventID := model.EventIDConfigPushDisassociated
	if ev.WipeData() {
		eventID = model.EventIDConfigPushWipeData
	}

	env := newEnvelope(ev, eventID, ev.HarmanID, associationPayload(ev))
	path := "/v1/devices/" + url.PathEscape(ev.HarmanID) + "/messages"
	if err := h.client.PostJSON(ctx, path, map[string]string{headerUserID: ev.UserID}, env); err != nil {
		return fmt.Errorf("failed to push %s to device %s: %w", eventID, ev.HarmanID, err)
	}

	h.logger.Info("Pushed device message", "eventID", eventID, "harmanID", ev.HarmanID, "messageID", env.MessageID)
	return nil
}
