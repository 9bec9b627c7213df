package paths

// Topic segments for association lifecycle events published on the event bus.
// These constants are the routing contract with downstream consumers.
const (
	// Association carries association and disassociation events.
	// Pattern: {root}/association/{harmanID}
	Association = "association"

	// SoftwareVersion carries the software version reported at association time.
	// Pattern: {root}/software-version/{harmanID}
	SoftwareVersion = "software-version"

	// VIN carries the VIN bound to the associated device.
	// Pattern: {root}/vin/{harmanID}
	VIN = "vin"

	// AssetActivation announces a newly activated asset.
	// Pattern: {root}/asset-activation/{harmanID}
	AssetActivation = "asset-activation"
)
