package app

import (
	"context"
	"io"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"spotplacement/pkg/arm"
	"spotplacement/pkg/auth"
	"spotplacement/pkg/known"
	"spotplacement/pkg/models"
	"spotplacement/pkg/options"
	"spotplacement/pkg/placement"
	"spotplacement/pkg/printer"
)

func NewCheckCommand(ctx context.Context) *cobra.Command {
	opts := options.NewCheckOptions()
	cmd := &cobra.Command{
		Use:                   "check",
		Long:                  "query Azure spot placement scores for VM SKUs across regions",
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := auth.ProviderFromEnv(known.AccessTokenEnv)
			if err != nil {
				return err
			}
			return RunCheck(ctx, opts, tokens, cmd.OutOrStdout())
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunCheck(ctx context.Context, opts *options.CheckOptions, tokens auth.TokenProvider, out io.Writer) error {
	reqs, err := opts.Requests()
	if err != nil {
		return err
	}
	opts.ApplyLogLevel()

	client, err := arm.NewClient(opts.Host, opts.Timeout)
	if err != nil {
		return err
	}
	token, err := tokens.AccessToken(ctx, known.ARMScope)
	if err != nil {
		return err
	}

	checks, err := checkAll(ctx, placement.NewChecker(client), reqs, token, opts.Workers)
	if err != nil {
		return err
	}
	printer.PrintResults(out, checks)
	if opts.Trace {
		printer.PrintTraces(out, checks)
	}
	return nil
}

// checkAll runs one placement check per subscription on a bounded pool.
// Results keep the order of reqs.
func checkAll(ctx context.Context, checker *placement.Checker, reqs []*models.SpotPlacementRequest, token string, workers int) ([]models.CheckResult, error) {
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, errors.Wrap(err, "create worker pool")
	}
	defer pool.Release()

	checks := make([]models.CheckResult, len(reqs))
	var (
		wg        sync.WaitGroup
		submitErr error
	)
	for i, req := range reqs {
		i, req := i, req
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			checks[i] = checker.Check(ctx, req, token)
		}); err != nil {
			wg.Done()
			submitErr = errors.Wrap(err, "submit placement check")
			break
		}
	}
	wg.Wait()
	if submitErr != nil {
		return nil, submitErr
	}
	return checks, nil
}
