package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"spotplacement/pkg/models"
)

const (
	subscriptionColumn = "Subscription"
	regionColumn       = "Region"
	skuColumn          = "VM SKU"
	zoneColumn         = "Availability Zone"
	scoreColumn        = "Score"
	availableColumn    = "Available"
	messageColumn      = "Message"
	nameColumn         = "Name"
	displayNameColumn  = "Display Name"
	vCPUColumn         = "vCPU"
	memoryColumn       = "Memory GiB"
	seriesColumn       = "Series"
)

// ScoreColor picks the terminal color of a placement score.
func ScoreColor(score string) text.Color {
	switch strings.ToLower(score) {
	case "4", "veryhigh", "3", "high":
		return text.FgHiGreen
	case "2", "medium":
		return text.FgHiYellow
	case "1", "low":
		return text.FgHiMagenta
	case "0", "verylow", "error":
		return text.FgHiRed
	default:
		return text.FgWhite
	}
}

func newWriter(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Title.Align = text.AlignCenter
	return t
}

// PrintResults renders placement rows; the subscription column is added
// when more than one subscription was checked.
func PrintResults(w io.Writer, checks []models.CheckResult) {
	withSubscription := len(checks) > 1
	t := newWriter(w)
	header := table.Row{regionColumn, skuColumn, zoneColumn, scoreColumn, availableColumn, messageColumn}
	if withSubscription {
		header = append(table.Row{subscriptionColumn}, header...)
	}
	t.AppendHeader(header)
	for _, check := range checks {
		for _, r := range check.Results {
			row := table.Row{r.Region, r.VmSku, r.AvailabilityZone, r.Score, r.IsAvailable, r.Message}
			if withSubscription {
				row = append(table.Row{check.SubscriptionId}, row...)
			}
			t.AppendRow(row)
		}
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{
			Name:        subscriptionColumn,
			AutoMerge:   true,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignCenter,
		},
		{
			Name:      regionColumn,
			AutoMerge: true,
		},
		{
			Name: scoreColumn,
			Transformer: func(val interface{}) string {
				score := fmt.Sprint(val)
				return text.Colors{ScoreColor(score)}.Sprint(score)
			},
		},
	})
	t.Style().Options.SeparateRows = true
	t.Render()
}

// PrintTraces writes the raw request/response of every check.
func PrintTraces(w io.Writer, checks []models.CheckResult) {
	for _, check := range checks {
		fmt.Fprintf(w, "# subscription %s\n## request\n%s\n## response\n%s\n", check.SubscriptionId, check.RequestTrace, check.ResponseTrace)
	}
}

func PrintSubscriptions(w io.Writer, subscriptions []models.SubscriptionInfo) {
	t := newWriter(w)
	t.AppendHeader(table.Row{subscriptionColumn, displayNameColumn})
	for _, s := range subscriptions {
		t.AppendRow(table.Row{s.SubscriptionId, s.DisplayName})
	}
	t.Render()
}

func PrintSeries(w io.Writer, series []string) {
	t := newWriter(w)
	t.AppendHeader(table.Row{seriesColumn})
	for _, s := range series {
		t.AppendRow(table.Row{s})
	}
	t.Render()
}

func PrintSkus(w io.Writer, skus []models.VmSkuInfo) {
	t := newWriter(w)
	t.AppendHeader(table.Row{nameColumn, vCPUColumn, memoryColumn})
	for _, s := range skus {
		t.AppendRow(table.Row{s.Name, s.VCpus, s.MemoryGB})
	}
	t.Render()
}

func PrintRegions(w io.Writer, regions []models.RegionInfo) {
	t := newWriter(w)
	t.AppendHeader(table.Row{nameColumn, displayNameColumn})
	for _, r := range regions {
		t.AppendRow(table.Row{r.Name, r.DisplayName})
	}
	t.Render()
}
