package app

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"spotplacement/pkg/arm"
	"spotplacement/pkg/auth"
	"spotplacement/pkg/metrics"
	"spotplacement/pkg/options"
	"spotplacement/pkg/placement"
	"spotplacement/pkg/resources"
	"spotplacement/pkg/server"
)

func NewServeCommand(ctx context.Context) *cobra.Command {
	opts := options.NewServerOptions()
	cmd := &cobra.Command{
		Use:                   "serve",
		Long:                  "run the spot placement score web application",
		DisableFlagsInUseLine: true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Complete()
			if err := opts.Validate(); err != nil {
				return err
			}
			return RunServe(ctx, opts)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func RunServe(ctx context.Context, opts *options.ServerOptions) error {
	opts.ApplyLogLevel()
	client, err := arm.NewClient(opts.Host, opts.Timeout)
	if err != nil {
		return err
	}
	authenticator := auth.NewAuthenticator(auth.Config{
		TenantID:     opts.TenantID,
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
	})
	srv, err := server.New(opts, resources.NewLister(client, opts.SkuLocation), placement.NewChecker(client), authenticator)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	if opts.MetricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, opts.MetricsAddr)
		})
	}
	return g.Wait()
}
