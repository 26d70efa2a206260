package app

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"spotplacement/pkg/arm"
	"spotplacement/pkg/auth"
	"spotplacement/pkg/known"
	"spotplacement/pkg/options"
	"spotplacement/pkg/printer"
	"spotplacement/pkg/resources"
)

type listFunc func(ctx context.Context, lister *resources.Lister, opts *options.ListOptions, token string, out io.Writer) error

func NewListCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:  "list",
		Long: "list subscriptions, instance series, VM SKUs or regions",
	}
	cmd.AddCommand(
		newListSubcommand(ctx, "subscriptions", false, listSubscriptions),
		newListSubcommand(ctx, "series", true, listSeries),
		newListSubcommand(ctx, "skus", true, listSkus),
		newListSubcommand(ctx, "regions", true, listRegions),
	)
	return cmd
}

func newListSubcommand(ctx context.Context, use string, needSubscription bool, fn listFunc) *cobra.Command {
	opts := options.NewListOptions()
	cmd := &cobra.Command{
		Use:                   use,
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(needSubscription); err != nil {
				return err
			}
			tokens, err := auth.ProviderFromEnv(known.AccessTokenEnv)
			if err != nil {
				return err
			}
			return RunList(ctx, opts, tokens, cmd.OutOrStdout(), fn)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunList(ctx context.Context, opts *options.ListOptions, tokens auth.TokenProvider, out io.Writer, fn listFunc) error {
	opts.ApplyLogLevel()
	client, err := arm.NewClient(opts.Host, opts.Timeout)
	if err != nil {
		return err
	}
	token, err := tokens.AccessToken(ctx, known.ARMScope)
	if err != nil {
		return err
	}
	return fn(ctx, resources.NewLister(client, opts.SkuLocation), opts, token, out)
}

func listSubscriptions(ctx context.Context, lister *resources.Lister, _ *options.ListOptions, token string, out io.Writer) error {
	subscriptions, err := lister.ListSubscriptions(ctx, token)
	if err != nil {
		return err
	}
	printer.PrintSubscriptions(out, subscriptions)
	return nil
}

func listSeries(ctx context.Context, lister *resources.Lister, opts *options.ListOptions, token string, out io.Writer) error {
	series, err := lister.ListInstanceSeries(ctx, opts.Subscription, token)
	if err != nil {
		return err
	}
	printer.PrintSeries(out, series)
	return nil
}

func listSkus(ctx context.Context, lister *resources.Lister, opts *options.ListOptions, token string, out io.Writer) error {
	skus, err := lister.ListVmSkus(ctx, opts.Subscription, opts.Series, token)
	if err != nil {
		return err
	}
	printer.PrintSkus(out, skus)
	return nil
}

func listRegions(ctx context.Context, lister *resources.Lister, opts *options.ListOptions, token string, out io.Writer) error {
	regions, err := lister.ListRegions(ctx, opts.Subscription, token)
	if err != nil {
		return err
	}
	printer.PrintRegions(out, regions)
	return nil
}
