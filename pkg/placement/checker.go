package placement

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/pkg/errors"
	"github.com/tidwall/pretty"

	"spotplacement/pkg/arm"
	"spotplacement/pkg/known"
	"spotplacement/pkg/metrics"
	"spotplacement/pkg/models"
)

const opSpotPlacement = "spot_placement_scores"

type requestTrace struct {
	URL    string                   `json:"url"`
	Method string                   `json:"method"`
	Body   models.SpotPlacementBody `json:"body"`
}

type statusTrace struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
}

type failureTrace struct {
	Error      string `json:"error"`
	StackTrace string `json:"stackTrace"`
}

// Checker asks ARM for spot placement scores. It never fails: every error
// is turned into placeholder rows so callers always get a table to render.
type Checker struct {
	arm *arm.Client
}

func NewChecker(client *arm.Client) *Checker {
	return &Checker{arm: client}
}

// Check runs CheckPlacementScores for a validated request.
func (c *Checker) Check(ctx context.Context, req *models.SpotPlacementRequest, token string) models.CheckResult {
	results, reqTrace, respTrace := c.CheckPlacementScores(ctx, req.SubscriptionId, req.SelectedSkus,
		req.SelectedRegions, req.UseAvailabilityZones, req.DesiredCount, token)
	return models.CheckResult{
		SubscriptionId: req.SubscriptionId,
		Results:        results,
		RequestTrace:   reqTrace,
		ResponseTrace:  respTrace,
	}
}

// CheckPlacementScores sends one request covering every sku and region and
// flattens the answer to one row per (region, sku, zone). The request trace
// is rendered before the call so it survives any failure.
func (c *Checker) CheckPlacementScores(ctx context.Context, subscriptionId string, skus, regions []string,
	useAvailabilityZones bool, desiredCount int, token string) (results []models.SpotPlacementScoreResult, reqTrace, respTrace string) {
	defer func() {
		if r := recover(); r != nil {
			results, respTrace = failed(ctx, regions, skus, errors.Errorf("%v", r))
		}
		for _, row := range results {
			metrics.ObservePlacementRow(row.Score)
		}
	}()

	primaryRegion := known.DefaultPlacementRegion
	if len(regions) > 0 {
		primaryRegion = regions[0]
	}
	uri := c.arm.URL(arm.Path(known.SpotPlacementUri, subscriptionId, primaryRegion), arm.Query(known.SpotPlacementApi))

	body := models.SpotPlacementBody{
		DesiredLocations:  append([]string{}, regions...),
		DesiredSizes:      make([]models.DesiredSize, 0, len(skus)),
		DesiredCount:      desiredCount,
		AvailabilityZones: useAvailabilityZones,
	}
	for _, sku := range skus {
		body.DesiredSizes = append(body.DesiredSizes, models.DesiredSize{Sku: sku})
	}

	var err error
	reqTrace, err = indentJSON(requestTrace{URL: uri, Method: consts.MethodPost, Body: body})
	if err != nil {
		results, respTrace = failed(ctx, regions, skus, errors.Wrap(err, "serialize request trace"))
		return
	}
	payload, err := sonic.Marshal(body)
	if err != nil {
		results, respTrace = failed(ctx, regions, skus, errors.Wrap(err, "serialize request body"))
		return
	}

	hlog.CtxInfof(ctx, "making single placement score call for %d skus across %d regions", len(skus), len(regions))
	resp, err := c.arm.Do(ctx, opSpotPlacement, consts.MethodPost, uri, payload, token)
	if err != nil {
		results, respTrace = failed(ctx, regions, skus, err)
		return
	}

	if !resp.Success() {
		respTrace, _ = indentJSON(statusTrace{StatusCode: resp.StatusCode, Error: string(resp.Body)})
		hlog.CtxWarnf(ctx, "failed to get spot placement scores: %d - %s", resp.StatusCode, string(resp.Body))
		msg := fmt.Sprintf("API Error: %d %s", resp.StatusCode, consts.StatusMessage(resp.StatusCode))
		results = placeholders(regions, skus, known.ScoreError, msg)
		return
	}

	var parsed models.SpotPlacementResp
	if err = sonic.Unmarshal(resp.Body, &parsed); err != nil {
		results, respTrace = failed(ctx, regions, skus, errors.Wrap(err, "parse placement score response"))
		return
	}
	respTrace = string(bytes.TrimSpace(pretty.Pretty(resp.Body)))

	if parsed.PlacementScores != nil {
		for _, item := range *parsed.PlacementScores {
			score := orDefault(item.Score, known.ScoreUnknown)
			quota := item.IsQuotaAvailable != nil && *item.IsQuotaAvailable
			available := IsAvailable(score, quota)
			results = append(results, models.SpotPlacementScoreResult{
				Region:           orDefault(item.Region, known.ValueUnknown),
				VmSku:            orDefault(item.Sku, known.ValueUnknown),
				AvailabilityZone: orDefault(item.AvailabilityZone, known.ZoneNone),
				Score:            score,
				IsAvailable:      available,
				Message:          ScoreMessage(score, available),
			})
		}
	}
	if len(results) == 0 {
		results = placeholders(regions, skus, known.ScoreNoScore, "No placement score available")
	}

	hlog.CtxInfof(ctx, "completed spot placement score check for %d combinations", len(results))
	return
}

// failed renders the failure trace and one error row per region and sku.
func failed(ctx context.Context, regions, skus []string, err error) ([]models.SpotPlacementScoreResult, string) {
	hlog.CtxErrorf(ctx, "check spot placement scores failed: %v", err)
	trace, traceErr := indentJSON(failureTrace{Error: err.Error(), StackTrace: fmt.Sprintf("%+v", err)})
	if traceErr != nil {
		trace = err.Error()
	}
	return placeholders(regions, skus, known.ScoreError, err.Error()), trace
}

func placeholders(regions, skus []string, score, message string) []models.SpotPlacementScoreResult {
	rows := make([]models.SpotPlacementScoreResult, 0, len(regions)*len(skus))
	for _, region := range regions {
		for _, sku := range skus {
			rows = append(rows, models.SpotPlacementScoreResult{
				Region:           region,
				VmSku:            sku,
				AvailabilityZone: known.ZoneNone,
				Score:            score,
				IsAvailable:      false,
				Message:          message,
			})
		}
	}
	return rows
}

func indentJSON(v interface{}) (string, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimSpace(pretty.Pretty(raw))), nil
}

func orDefault(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
