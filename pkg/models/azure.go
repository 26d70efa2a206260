package models

// SubscriptionInfo - subscription visible to the signed-in user
type SubscriptionInfo struct {
	SubscriptionId string `json:"subscriptionId"`
	DisplayName    string `json:"displayName"`
}

// VmSkuInfo - virtual machine size with its vCPU and memory capabilities.
// Size always repeats Name; the page binds both.
type VmSkuInfo struct {
	Name     string `json:"name"`
	Size     string `json:"size"`
	VCpus    int    `json:"vCpus"`
	MemoryGB int    `json:"memoryGB"`
}

// RegionInfo - ARM location id and its human label
type RegionInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// SubscriptionListResp GET /subscriptions
type SubscriptionListResp struct {
	Value *[]struct {
		SubscriptionId *string `json:"subscriptionId"`
		DisplayName    *string `json:"displayName"`
	} `json:"value"`
}

// LocationListResp GET /subscriptions/{id}/locations
type LocationListResp struct {
	Value *[]struct {
		Name        *string `json:"name"`
		DisplayName *string `json:"displayName"`
	} `json:"value"`
}

// ComputeSkuListResp GET /subscriptions/{id}/providers/Microsoft.Compute/skus
type ComputeSkuListResp struct {
	Value *[]ComputeSku `json:"value"`
}

// ComputeSku - nil members were absent from the response
type ComputeSku struct {
	ResourceType *string          `json:"resourceType"`
	Name         *string          `json:"name"`
	Capabilities *[]SkuCapability `json:"capabilities"`
}

type SkuCapability struct {
	Name  *string `json:"name"`
	Value *string `json:"value"`
}
