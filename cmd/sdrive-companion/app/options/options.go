package options

import (
	"errors"

	"github.com/spf13/pflag"

	"github.com/safedrive-io/safedrive/internal/companion"
	"github.com/safedrive-io/safedrive/internal/companion/sensor"
	"github.com/safedrive-io/safedrive/pkg/log"
	genericoptions "github.com/safedrive-io/safedrive/pkg/options"
)

// CompanionOptions aggregates every configurable surface of the
// companion. Fields mirror the config file layout.
type CompanionOptions struct {
	ApiOptions  *genericoptions.ApiOptions  `json:"api" mapstructure:"api"`
	MqttOptions *genericoptions.MqttOptions `json:"mqtt" mapstructure:"mqtt"`
	HttpOptions *genericoptions.HttpOptions `json:"http" mapstructure:"http"`
	Log         *log.Options                `json:"log" mapstructure:"log"`
}

// NewCompanionOptions creates a CompanionOptions with defaults.
func NewCompanionOptions() *CompanionOptions {
	return &CompanionOptions{
		ApiOptions:  genericoptions.NewApiOptions(),
		MqttOptions: genericoptions.NewMqttOptions(),
		HttpOptions: genericoptions.NewHttpOptions(),
		Log:         log.NewOptions(),
	}
}

// AddFlags registers every option group on the given flag set.
func (o *CompanionOptions) AddFlags(fs *pflag.FlagSet) {
	o.ApiOptions.AddFlags(fs)
	o.MqttOptions.AddFlags(fs)
	o.HttpOptions.AddFlags(fs)
	o.Log.AddFlags(fs)
}

// Validate folds all option group validations into one error.
func (o *CompanionOptions) Validate() error {
	var errs []error
	errs = append(errs, o.ApiOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errors.Join(errs...)
}

// Config builds the runtime configuration from validated options.
func (o *CompanionOptions) Config() (*companion.Config, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &companion.Config{
		ApiOptions:  o.ApiOptions,
		MqttOptions: o.MqttOptions,
		HttpOptions: o.HttpOptions,
		Thresholds:  sensor.DefaultThresholds(),
	}, nil
}
