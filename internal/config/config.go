package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HallyG/xerograb/internal/extract"
	"github.com/HallyG/xerograb/internal/oauth"
	"github.com/HallyG/xerograb/internal/report"
	"github.com/HallyG/xerograb/internal/sink"
	"github.com/HallyG/xerograb/internal/util/uuidutil"
	"github.com/HallyG/xerograb/internal/xero"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "XEROGRAB"

	LoadTypeFull        = "full_load"
	LoadTypeIncremental = "incremental_load"
)

type Config struct {
	ClientID     string      `mapstructure:"client_id" json:"client_id"`
	ClientSecret string      `mapstructure:"client_secret" json:"client_secret"`
	StateFile    string      `mapstructure:"state_file" json:"state_file"`
	TenantIDs    []string    `mapstructure:"tenant_ids" json:"tenant_ids"`
	Endpoints    []string    `mapstructure:"endpoints" json:"endpoints"`
	Reports      []Report    `mapstructure:"reports" json:"reports"`
	Destination  Destination `mapstructure:"destination" json:"destination"`
}

type Report struct {
	Name              string `mapstructure:"name" json:"name"`
	Variant           string `mapstructure:"variant" json:"variant"`
	Date              string `mapstructure:"date" json:"date"`
	Periods           int    `mapstructure:"periods" json:"periods"`
	Timeframe         string `mapstructure:"timeframe" json:"timeframe"`
	TrackingOptionID1 string `mapstructure:"tracking_option_id1" json:"tracking_option_id1"`
	TrackingOptionID2 string `mapstructure:"tracking_option_id2" json:"tracking_option_id2"`
	StandardLayout    *bool  `mapstructure:"standard_layout" json:"standard_layout"` // unset means true
	PaymentsOnly      bool   `mapstructure:"payments_only" json:"payments_only"`
	PreviousPeriods   int    `mapstructure:"previous_periods" json:"previous_periods"`
}

type Destination struct {
	Type     string `mapstructure:"type" json:"type"`
	Path     string `mapstructure:"path" json:"path"`
	LoadType string `mapstructure:"load_type" json:"load_type"`
}

// New returns a viper instance with defaults and environment binding, e.g. XEROGRAB_CLIENT_ID
// or XEROGRAB_DESTINATION_TYPE.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("client_id", "")
	v.SetDefault("client_secret", "")
	v.SetDefault("state_file", "xerograb_state.json")
	v.SetDefault("tenant_ids", []string{})
	v.SetDefault("endpoints", []string{})
	v.SetDefault("destination.type", string(sink.TypeCSV))
	v.SetDefault("destination.path", "out")
	v.SetDefault("destination.load_type", LoadTypeFull)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the config file at path, or ./xerograb.yaml if present when path is empty.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("xerograb")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate(ctx context.Context) error {
	return validation.ValidateStructWithContext(ctx, c,
		validation.Field(&c.ClientID, validation.Required.Error("is required")),
		validation.Field(&c.ClientSecret, validation.Required.Error("is required")),
		validation.Field(&c.StateFile, validation.Required.Error("is required")),
		validation.Field(&c.TenantIDs, validation.Each(uuidutil.Rule)),
		validation.Field(&c.Reports),
		validation.Field(&c.Destination),
	)
}

func (r Report) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error("is required")),
		validation.Field(&r.Variant, validation.In(lo.ToAnySlice(lo.Map(report.Variants(), func(v report.Variant, _ int) string {
			return string(v)
		}))...)),
		validation.Field(&r.Date, validation.Date(time.DateOnly)),
		validation.Field(&r.Periods, validation.Min(0), validation.Max(11)),
		validation.Field(&r.Timeframe, validation.In("MONTH", "QUARTER", "YEAR")),
		validation.Field(&r.TrackingOptionID1, uuidutil.Rule),
		validation.Field(&r.TrackingOptionID2, uuidutil.Rule),
		validation.Field(&r.PreviousPeriods, validation.Min(0)),
	)
}

func (d Destination) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Type, validation.Required.Error("is required"), validation.In(lo.ToAnySlice(lo.Map(sink.All(), func(t sink.Type, _ int) string {
			return string(t)
		}))...)),
		validation.Field(&d.Path, validation.Required.Error("is required")),
		validation.Field(&d.LoadType, validation.In(LoadTypeFull, LoadTypeIncremental)),
	)
}

// OAuth returns the OAuth client config for the Xero identity endpoints.
func (c *Config) OAuth() *oauth.Config {
	return oauth.NewConfig(c.ClientID, c.ClientSecret)
}

// ExtractOptions converts the configuration into options for a run. The config must be valid.
func (c *Config) ExtractOptions() (extract.Options, error) {
	reports := make([]extract.ReportOptions, 0, len(c.Reports))
	for _, r := range c.Reports {
		var date time.Time
		if r.Date != "" {
			parsed, err := time.Parse(time.DateOnly, r.Date)
			if err != nil {
				return extract.Options{}, fmt.Errorf("report %s: invalid date: %w", r.Name, err)
			}
			date = parsed
		}

		reports = append(reports, extract.ReportOptions{
			Name:            r.Name,
			Variant:         report.Variant(r.Variant),
			Date:            date,
			PreviousPeriods: r.PreviousPeriods,
			Params: xero.ReportParams{
				Periods:           r.Periods,
				Timeframe:         xero.Timeframe(r.Timeframe),
				TrackingOptionID1: r.TrackingOptionID1,
				TrackingOptionID2: r.TrackingOptionID2,
				StandardLayout:    lo.FromPtrOr(r.StandardLayout, true),
				PaymentsOnly:      r.PaymentsOnly,
			},
		})
	}

	return extract.Options{
		TenantIDs:   c.TenantIDs,
		Endpoints:   c.Endpoints,
		Reports:     reports,
		Incremental: c.Destination.LoadType == LoadTypeIncremental,
	}, nil
}
