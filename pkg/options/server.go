package options

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"spotplacement/pkg/known"
)

type ServerOptions struct {
	*ARMOptions
	Addr                  string
	MetricsAddr           string
	TrustForwardedHeaders bool
	TenantID              string
	ClientID              string
	ClientSecret          string
	CallbackPath          string
	SecureCookies         bool
}

func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		ARMOptions:    NewARMOptions(),
		Addr:          ":8080",
		MetricsAddr:   ":9090",
		TenantID:      "organizations",
		CallbackPath:  "/signin-oidc",
		SecureCookies: true,
	}
}

func (o *ServerOptions) AddFlags(flags *pflag.FlagSet) {
	o.ARMOptions.AddFlags(flags)
	flags.StringVar(&o.Addr, "addr", o.Addr, "listen address of the web application")
	flags.StringVar(&o.MetricsAddr, "metrics-addr", o.MetricsAddr, "listen address of /metrics, empty disables it")
	flags.BoolVar(&o.TrustForwardedHeaders, "trust-forwarded-headers", false,
		"build external URLs from X-Forwarded-Proto/X-Forwarded-Host (behind Front Door or another proxy)")
	flags.StringVar(&o.TenantID, "tenant-id", o.TenantID, "Entra ID tenant")
	flags.StringVar(&o.ClientID, "client-id", "", "Entra ID application (client) id")
	flags.StringVar(&o.CallbackPath, "callback-path", o.CallbackPath, "sign-in redirect path registered for the application")
	flags.BoolVar(&o.SecureCookies, "secure-cookies", o.SecureCookies, "mark session cookies Secure")
}

// Complete fills values that come from the environment.
func (o *ServerOptions) Complete() {
	if o.ClientSecret == "" {
		o.ClientSecret, _ = os.LookupEnv(known.ClientSecretEnv)
	}
}

func (o *ServerOptions) Validate() error {
	if err := o.ARMOptions.Validate(); err != nil {
		return err
	}
	if o.Addr == "" {
		return errors.New("--addr must not be empty")
	}
	if o.ClientID == "" {
		return errors.New("--client-id is required")
	}
	if o.ClientSecret == "" {
		return errors.Errorf("env: %s not exist", known.ClientSecretEnv)
	}
	if !strings.HasPrefix(o.CallbackPath, "/") {
		return errors.Errorf("--callback-path %q must start with /", o.CallbackPath)
	}
	return nil
}
