package model

// Event identifiers carried in Envelope.EventID.
const (
	EventIDAssociation     = "DeviceAssociation"
	EventIDDisassociation  = "DeviceDisassociation"
	EventIDSoftwareVersion = "SoftwareVersion"
	EventIDVin             = "VIN"
	EventIDAssetActivation = "AssetActivation"

	EventIDConfigPushDisassociated = "DeviceDisassociated"
	EventIDConfigPushWipeData      = "DeviceDisassociatedWipeData"
)

// EnvelopeVersion is the schema version of every outbound envelope.
const EnvelopeVersion = "1.0"

// VinTypeCode is the vin-event type of a plain VIN value.
const VinTypeCode = "VIN"

// Envelope is the outbound structured message shared by the event bus,
// the stream sink and the config-push peer.
type Envelope struct {
	// MessageID is unique per envelope so consumers can drop redeliveries.
	MessageID       string `json:"messageId"`
	EventID         string `json:"eventId"`
	Version         string `json:"version"`
	TimestampMillis int64  `json:"timestampMillis"`
	CorrelationKey  string `json:"correlationKey"`
	Payload         any    `json:"payload"`
}

// AssociationPayload is the association-changed payload.
type AssociationPayload struct {
	UserID   string `json:"userId"`
	DeviceID string `json:"deviceId"`
}

// SoftwareVersionPayload reports the device software version.
type SoftwareVersionPayload struct {
	Value string `json:"value"`
}

// VinPayload reports the VIN bound to the device.
type VinPayload struct {
	Dummy      bool   `json:"dummy"`
	Value      string `json:"value"`
	Type       string `json:"type"`
	UserID     string `json:"userId,omitempty"`
	DeviceType string `json:"deviceType,omitempty"`
	ModelName  string `json:"modelName,omitempty"`
}

// AssetActivationPayload announces a newly activated asset.
type AssetActivationPayload struct {
	HarmanID     string `json:"harmanId"`
	SerialNumber string `json:"serialNumber"`
	UserID       string `json:"userId"`
	Country      string `json:"country,omitempty"`
	DeviceType   string `json:"deviceType"`
}
