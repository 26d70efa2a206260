package resources

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/pkg/errors"

	"spotplacement/pkg/arm"
	"spotplacement/pkg/known"
	"spotplacement/pkg/models"
)

const (
	opListSubscriptions = "list_subscriptions"
	opListSkus          = "list_skus"
	opListRegions       = "list_regions"
)

// BySkuName implements sort.Interface based on the Name field
type BySkuName []models.VmSkuInfo

func (a BySkuName) Len() int           { return len(a) }
func (a BySkuName) Less(i, j int) bool { return strings.Compare(a[i].Name, a[j].Name) == -1 }
func (a BySkuName) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }

// ByDisplayName implements sort.Interface based on the DisplayName field
type ByDisplayName []models.RegionInfo

func (a ByDisplayName) Len() int { return len(a) }
func (a ByDisplayName) Less(i, j int) bool {
	return strings.Compare(a[i].DisplayName, a[j].DisplayName) == -1
}
func (a ByDisplayName) Swap(i, j int) { a[i], a[j] = a[j], a[i] }

// Lister reads the dropdown option sets from ARM list endpoints.
// Failures are returned untouched: *arm.UpstreamError for a non-success
// status, *arm.MalformedResponseError for an unexpected body.
type Lister struct {
	arm         *arm.Client
	skuLocation string
}

func NewLister(client *arm.Client, skuLocation string) *Lister {
	if skuLocation == "" {
		skuLocation = known.DefaultSkuLocation
	}
	return &Lister{arm: client, skuLocation: skuLocation}
}

// ListSubscriptions get all subscriptions the token can see
func (l *Lister) ListSubscriptions(ctx context.Context, token string) ([]models.SubscriptionInfo, error) {
	var resp models.SubscriptionListResp
	err := l.arm.GetJSON(ctx, opListSubscriptions, known.SubscriptionsUri, arm.Query(known.SubscriptionsApi), token, &resp)
	if err == nil && resp.Value == nil {
		err = &arm.MalformedResponseError{Operation: opListSubscriptions, Cause: errors.New("missing value array")}
	}
	if err != nil {
		hlog.CtxErrorf(ctx, "fetch subscriptions failed: %v", err)
		return nil, err
	}

	subscriptions := make([]models.SubscriptionInfo, 0, len(*resp.Value))
	for _, item := range *resp.Value {
		subscriptions = append(subscriptions, models.SubscriptionInfo{
			SubscriptionId: deref(item.SubscriptionId),
			DisplayName:    deref(item.DisplayName),
		})
	}
	hlog.CtxInfof(ctx, "retrieved %d subscriptions", len(subscriptions))
	return subscriptions, nil
}

// ListInstanceSeries get the distinct VM series offered in the SKU location, sorted
func (l *Lister) ListInstanceSeries(ctx context.Context, subscriptionId, token string) ([]string, error) {
	skus, err := l.virtualMachineSkus(ctx, subscriptionId, token)
	if err != nil {
		hlog.CtxErrorf(ctx, "fetch instance series failed: %v", err)
		return nil, err
	}

	seriesSet := make(map[string]struct{})
	for _, sku := range skus {
		if series := ExtractSeriesFromSku(sku.name); series != "" {
			seriesSet[series] = struct{}{}
		}
	}
	series := make([]string, 0, len(seriesSet))
	for s := range seriesSet {
		series = append(series, s)
	}
	sort.Strings(series)
	hlog.CtxInfof(ctx, "retrieved %d instance series", len(series))
	return series, nil
}

// ListVmSkus get VM sizes of one series, or of the common D/E/F/B families
// when series is empty. At most known.MaxListedSkus entries sorted by name.
func (l *Lister) ListVmSkus(ctx context.Context, subscriptionId, series, token string) ([]models.VmSkuInfo, error) {
	skus, err := l.virtualMachineSkus(ctx, subscriptionId, token)
	if err != nil {
		hlog.CtxErrorf(ctx, "fetch vm skus failed: %v", err)
		return nil, err
	}

	var result []models.VmSkuInfo
	for _, sku := range skus {
		if series != "" {
			if ExtractSeriesFromSku(sku.name) != series {
				continue
			}
		} else if !hasCommonPrefix(sku.name) {
			continue
		}
		info, err := skuInfo(sku)
		if err != nil {
			hlog.CtxErrorf(ctx, "fetch vm skus failed: %v", err)
			return nil, err
		}
		result = append(result, info)
	}

	seriesLabel := series
	if seriesLabel == "" {
		seriesLabel = "all"
	}
	hlog.CtxInfof(ctx, "retrieved %d vm skus for series %s", len(result), seriesLabel)

	sort.Stable(BySkuName(result))
	if len(result) > known.MaxListedSkus {
		result = result[:known.MaxListedSkus]
	}
	return result, nil
}

// ListRegions get the locations of a subscription sorted by display name
func (l *Lister) ListRegions(ctx context.Context, subscriptionId, token string) ([]models.RegionInfo, error) {
	var resp models.LocationListResp
	path := arm.Path(known.LocationsUri, subscriptionId)
	err := l.arm.GetJSON(ctx, opListRegions, path, arm.Query(known.LocationsApi), token, &resp)
	if err == nil && resp.Value == nil {
		err = &arm.MalformedResponseError{Operation: opListRegions, Cause: errors.New("missing value array")}
	}
	if err != nil {
		hlog.CtxErrorf(ctx, "fetch regions failed: %v", err)
		return nil, err
	}

	regions := make([]models.RegionInfo, 0, len(*resp.Value))
	for _, item := range *resp.Value {
		regions = append(regions, models.RegionInfo{
			Name:        deref(item.Name),
			DisplayName: deref(item.DisplayName),
		})
	}
	sort.Stable(ByDisplayName(regions))
	hlog.CtxInfof(ctx, "retrieved %d regions", len(regions))
	return regions, nil
}

// vmSku is a virtualMachines entry of the SKU catalogue with its name checked.
type vmSku struct {
	name         string
	capabilities *[]models.SkuCapability
}

func (l *Lister) virtualMachineSkus(ctx context.Context, subscriptionId, token string) ([]vmSku, error) {
	var resp models.ComputeSkuListResp
	path := arm.Path(known.ComputeSkusUri, subscriptionId)
	query := arm.Query(known.ComputeSkusApi, "$filter", "location eq '"+l.skuLocation+"'")
	if err := l.arm.GetJSON(ctx, opListSkus, path, query, token, &resp); err != nil {
		return nil, err
	}
	if resp.Value == nil {
		return nil, malformedSku("missing value array")
	}

	var skus []vmSku
	for i, sku := range *resp.Value {
		if sku.ResourceType == nil {
			return nil, malformedSku("sku %d has no resourceType", i)
		}
		if *sku.ResourceType != known.VirtualMachineType {
			continue
		}
		if sku.Name == nil {
			return nil, malformedSku("sku %d has no name", i)
		}
		skus = append(skus, vmSku{name: *sku.Name, capabilities: sku.Capabilities})
	}
	return skus, nil
}

// skuInfo reads vCPUs and MemoryGB; values that are not integers count as 0.
func skuInfo(sku vmSku) (models.VmSkuInfo, error) {
	info := models.VmSkuInfo{Name: sku.name, Size: sku.name}
	if sku.capabilities == nil {
		return info, malformedSku("sku %s has no capabilities", sku.name)
	}
	for _, capability := range *sku.capabilities {
		if capability.Name == nil || capability.Value == nil {
			return info, malformedSku("sku %s has an incomplete capability", sku.name)
		}
		switch *capability.Name {
		case "vCPUs":
			info.VCpus = atoi(*capability.Value)
		case "MemoryGB":
			info.MemoryGB = atoi(*capability.Value)
		}
	}
	return info, nil
}

func malformedSku(format string, args ...interface{}) error {
	return &arm.MalformedResponseError{Operation: opListSkus, Cause: errors.Errorf(format, args...)}
}

func hasCommonPrefix(name string) bool {
	for _, prefix := range known.CommonSkuPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func atoi(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
