package options

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"spotplacement/pkg/models"
)

type CheckOptions struct {
	*ARMOptions
	Subscriptions []string
	Skus          []string
	Regions       []string
	Zones         bool
	Count         int
	Trace         bool
	Workers       int
}

func NewCheckOptions() *CheckOptions {
	return &CheckOptions{
		ARMOptions: NewARMOptions(),
		Zones:      true,
		Count:      1,
		Workers:    4,
	}
}

func (o *CheckOptions) AddFlags(flags *pflag.FlagSet) {
	o.ARMOptions.AddFlags(flags)
	flags.StringSliceVarP(&o.Subscriptions, "subscription", "s", nil, "one or more subscription ids, each checked separately")
	flags.StringSliceVarP(&o.Skus, "sku", "i", nil, "VM SKUs to score, e.g. Standard_D2s_v3 (at most 5)")
	flags.StringSliceVarP(&o.Regions, "region", "r", nil, "regions to score, e.g. eastus (at most 3)")
	flags.BoolVar(&o.Zones, "zones", o.Zones, "score per availability zone")
	flags.IntVarP(&o.Count, "count", "c", o.Count, "desired number of spot VMs")
	flags.BoolVar(&o.Trace, "trace", false, "print the raw ARM request and response")
	flags.IntVar(&o.Workers, "workers", o.Workers, "subscriptions checked in parallel")
}

// Requests builds one validated placement request per subscription.
func (o *CheckOptions) Requests() ([]*models.SpotPlacementRequest, error) {
	if err := o.ARMOptions.Validate(); err != nil {
		return nil, err
	}
	if o.Workers < 1 {
		return nil, errors.New("--workers must be at least 1")
	}
	if len(o.Subscriptions) == 0 {
		o.Subscriptions = []string{""}
	}
	var reqs []*models.SpotPlacementRequest
	for _, sub := range o.Subscriptions {
		req := models.NewSpotPlacementRequest()
		req.SubscriptionId = sub
		req.SelectedSkus = o.Skus
		req.SelectedRegions = o.Regions
		req.UseAvailabilityZones = o.Zones
		req.DesiredCount = o.Count
		req.Normalize()
		if problems := req.Validate(); len(problems) > 0 {
			return nil, errors.Errorf("invalid request for subscription %q: %s", sub, strings.Join(problems, "; "))
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// ListOptions - flags of the list sub-commands
type ListOptions struct {
	*ARMOptions
	Subscription string
	Series       string
}

func NewListOptions() *ListOptions {
	return &ListOptions{ARMOptions: NewARMOptions()}
}

func (o *ListOptions) AddFlags(flags *pflag.FlagSet) {
	o.ARMOptions.AddFlags(flags)
	flags.StringVarP(&o.Subscription, "subscription", "s", "", "subscription id")
	flags.StringVar(&o.Series, "series", "", "VM series filter for skus, e.g. Dsv3-series")
}

// Validate checks the flags; needSubscription is false only for listing subscriptions.
func (o *ListOptions) Validate(needSubscription bool) error {
	if err := o.ARMOptions.Validate(); err != nil {
		return err
	}
	if needSubscription && o.Subscription == "" {
		return errors.New("--subscription is required")
	}
	return nil
}
