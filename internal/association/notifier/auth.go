package notifier

import (
	"context"
	"fmt"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/model"
	"github.com/autopeer-io/association/internal/association/observer"
	"github.com/autopeer-io/association/pkg/log"
)

const (
	authDeactivatePath   = "/device/deactivate"
	authDeactivateV2Path = "/v2/device/deactivate"

	headerHCPUser = "HCP-User"
	headerUserID  = "user-id"
)

var _ observer.Handler = (*AuthDeactivationHandler)(nil)

// AuthDeactivationHandler revokes the device credentials when an association ends.
type AuthDeactivationHandler struct {
	client *RESTClient
	logger log.Logger
}

func NewAuthDeactivationHandler(client *RESTClient) *AuthDeactivationHandler {
	return &AuthDeactivationHandler{
		client: client,
		logger: log.WithName("auth-deactivation"),
	}
}

func (h *AuthDeactivationHandler) Name() string { return "auth-deactivation" }

func (h *AuthDeactivationHandler) FailurePolicy() observer.FailurePolicy { return observer.PolicyFatal }

// Applicable skips disassociations that the auth service requested itself,
// unless the v2 deactivation was explicitly asked for.
func (h *AuthDeactivationHandler) Applicable(ev *model.AssociationEvent) bool {
	if ev.NewState != model.StateDisassociated {
		return false
	}
	return ev.DeviceAuthV2Deactivate || !ev.AuthsRequestOriginated
}

func (h *AuthDeactivationHandler) Handle(ctx context.Context, ev *model.AssociationEvent) error {
	if ev.DeviceAuthV2Deactivate {
		if ev.FactoryID <= 0 {
			return fmt.Errorf("v2 deactivation of association %d needs a factory id, got %d: %w", ev.AssociationID, ev.FactoryID, core.ErrInvalidInput)
		}

		body := map[string]int64{"factoryId": ev.FactoryID}
		if err := h.client.PostJSON(ctx, authDeactivateV2Path, map[string]string{headerUserID: ev.UserID}, body); err != nil {
			return fmt.Errorf("failed to deactivate device auth (v2) for factory id %d: %w", ev.FactoryID, err)
		}
		h.logger.Info("Deactivated device auth", "version", "v2", "factoryID", ev.FactoryID, "associationID", ev.AssociationID)
		return nil
	}

	if ev.SerialNumber == "" {
		return fmt.Errorf("deactivation of association %d needs a serial number: %w", ev.AssociationID, core.ErrInvalidInput)
	}

	body := map[string]string{"serialNumber": ev.SerialNumber}
	if err := h.client.PostJSON(ctx, authDeactivatePath, map[string]string{headerHCPUser: ev.UserID}, body); err != nil {
		return fmt.Errorf("failed to deactivate device auth for %s: %w", ev.SerialNumber, err)
	}
	h.logger.Info("Deactivated device auth", "version", "v1", "serialNumber", ev.SerialNumber, "associationID", ev.AssociationID)
	return nil
}
