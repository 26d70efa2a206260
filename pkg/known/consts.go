package known

const (
	ARMHost  = "https://management.azure.com"
	ARMScope = "https://management.azure.com/.default"

	SubscriptionsUri   = "/subscriptions"
	LocationsUri       = "/subscriptions/%s/locations"
	ComputeSkusUri     = "/subscriptions/%s/providers/Microsoft.Compute/skus"
	SpotPlacementUri   = "/subscriptions/%s/providers/Microsoft.Compute/locations/%s/placementScores/spot/generate"
	SubscriptionsApi   = "2022-12-01"
	LocationsApi       = "2022-12-01"
	ComputeSkusApi     = "2021-07-01"
	SpotPlacementApi   = "2025-06-05"
	VirtualMachineType = "virtualMachines"
)

const (
	// DefaultSkuLocation is the location the SKU catalogue is read from.
	DefaultSkuLocation = "eastus"
	// DefaultPlacementRegion is used for the endpoint path when no region was selected.
	DefaultPlacementRegion = "eastus"
)

const (
	MaxSelectedSkus    = 5
	MaxSelectedRegions = 3
	MaxListedSkus      = 50
)

const (
	ScoreNoScore = "No Score"
	ScoreError   = "Error"
	ScoreUnknown = "Unknown"
	ZoneNone     = "N/A"
	ValueUnknown = "Unknown"
)

const (
	AccessTokenEnv  = "AZURE_ACCESS_TOKEN"
	ClientSecretEnv = "AZURE_CLIENT_SECRET"
)

var (
	// CommonSkuPrefixes filters the SKU list when no series was chosen.
	CommonSkuPrefixes = []string{
		"Standard_D",
		"Standard_E",
		"Standard_F",
		"Standard_B",
	}
)
