package options

import (
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"spotplacement/pkg/known"
)

// ARMOptions - upstream and logging settings shared by every command
type ARMOptions struct {
	Host        string
	Timeout     time.Duration
	SkuLocation string
	LogLevel    string
}

var logLevels = map[string]hlog.Level{
	"trace":  hlog.LevelTrace,
	"debug":  hlog.LevelDebug,
	"info":   hlog.LevelInfo,
	"notice": hlog.LevelNotice,
	"warn":   hlog.LevelWarn,
	"error":  hlog.LevelError,
	"fatal":  hlog.LevelFatal,
}

func NewARMOptions() *ARMOptions {
	return &ARMOptions{
		Host:        known.ARMHost,
		SkuLocation: known.DefaultSkuLocation,
		LogLevel:    "info",
	}
}

func (o *ARMOptions) AddFlags(flags *pflag.FlagSet) {
	flags.StringVar(&o.Host, "arm-host", o.Host, "Azure Resource Manager endpoint")
	flags.DurationVar(&o.Timeout, "arm-timeout", o.Timeout, "timeout of one ARM call, 0 keeps the transport default")
	flags.StringVar(&o.SkuLocation, "sku-location", o.SkuLocation, "location the VM SKU catalogue is read from")
	flags.StringVar(&o.LogLevel, "log-level", o.LogLevel, "trace|debug|info|notice|warn|error|fatal")
}

func (o *ARMOptions) Validate() error {
	if !strings.HasPrefix(o.Host, "http://") && !strings.HasPrefix(o.Host, "https://") {
		return errors.Errorf("invalid --arm-host %q, must be an http(s) URL", o.Host)
	}
	if o.Timeout < 0 {
		return errors.New("--arm-timeout must not be negative")
	}
	if o.SkuLocation == "" {
		return errors.New("--sku-location must not be empty")
	}
	if _, ok := logLevels[strings.ToLower(o.LogLevel)]; !ok {
		return errors.Errorf("invalid --log-level %q", o.LogLevel)
	}
	return nil
}

// ApplyLogLevel sets the hlog level; call after Validate.
func (o *ARMOptions) ApplyLogLevel() {
	hlog.SetLevel(logLevels[strings.ToLower(o.LogLevel)])
}
