package models

import (
	"fmt"

	"spotplacement/pkg/known"
)

// SpotPlacementRequest - user selection submitted from the form or the CLI
type SpotPlacementRequest struct {
	SubscriptionId       string
	SelectedSkus         []string
	SelectedRegions      []string
	UseAvailabilityZones bool
	DesiredCount         int
}

func NewSpotPlacementRequest() *SpotPlacementRequest {
	return &SpotPlacementRequest{
		UseAvailabilityZones: true,
		DesiredCount:         1,
	}
}

// Normalize collapses repeated selections and restores the desired count default.
func (r *SpotPlacementRequest) Normalize() {
	r.SelectedSkus = dedup(r.SelectedSkus)
	r.SelectedRegions = dedup(r.SelectedRegions)
	if r.DesiredCount < 1 {
		r.DesiredCount = 1
	}
}

func dedup(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Validate returns one message per violated constraint, empty when the request can be sent.
func (r *SpotPlacementRequest) Validate() []string {
	var problems []string
	if r.SubscriptionId == "" {
		problems = append(problems, "Please select a subscription")
	}
	switch {
	case len(r.SelectedSkus) == 0:
		problems = append(problems, "Please select at least one VM SKU")
	case len(r.SelectedSkus) > known.MaxSelectedSkus:
		problems = append(problems, fmt.Sprintf("Please select no more than %d VM SKUs", known.MaxSelectedSkus))
	}
	switch {
	case len(r.SelectedRegions) == 0:
		problems = append(problems, "Please select at least one region")
	case len(r.SelectedRegions) > known.MaxSelectedRegions:
		problems = append(problems, fmt.Sprintf("Please select no more than %d regions", known.MaxSelectedRegions))
	}
	return problems
}

// Selected reports whether value is one of the chosen SKUs or regions.
func (r *SpotPlacementRequest) Selected(value string) bool {
	for _, v := range r.SelectedSkus {
		if v == value {
			return true
		}
	}
	for _, v := range r.SelectedRegions {
		if v == value {
			return true
		}
	}
	return false
}

// SpotPlacementScoreResult - one row per (region, sku, zone)
type SpotPlacementScoreResult struct {
	Region           string `json:"region"`
	VmSku            string `json:"vmSku"`
	AvailabilityZone string `json:"availabilityZone"`
	Score            string `json:"score"`
	IsAvailable      bool   `json:"isAvailable"`
	Message          string `json:"message"`
}

// CheckResult - rows plus the raw request/response shown for debugging
type CheckResult struct {
	SubscriptionId string
	Results        []SpotPlacementScoreResult
	RequestTrace   string
	ResponseTrace  string
}

type DesiredSize struct {
	Sku string `json:"sku"`
}

// SpotPlacementBody POST .../placementScores/spot/generate
type SpotPlacementBody struct {
	DesiredLocations  []string      `json:"desiredLocations"`
	DesiredSizes      []DesiredSize `json:"desiredSizes"`
	DesiredCount      int           `json:"desiredCount"`
	AvailabilityZones bool          `json:"availabilityZones"`
}

type SpotPlacementResp struct {
	PlacementScores *[]struct {
		Region           *string `json:"region"`
		Sku              *string `json:"sku"`
		AvailabilityZone *string `json:"availabilityZone"`
		Score            *string `json:"score"`
		IsQuotaAvailable *bool   `json:"isQuotaAvailable"`
	} `json:"placementScores"`
}
