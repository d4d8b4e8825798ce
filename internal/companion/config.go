package companion

import (
	"github.com/safedrive-io/safedrive/internal/companion/api"
	"github.com/safedrive-io/safedrive/internal/companion/observer"
	"github.com/safedrive-io/safedrive/internal/companion/sensor"
	"github.com/safedrive-io/safedrive/internal/companion/state"
	"github.com/safedrive-io/safedrive/internal/companion/stream"
	"github.com/safedrive-io/safedrive/internal/pkg/clock"
	"github.com/safedrive-io/safedrive/pkg/log"
	"github.com/safedrive-io/safedrive/pkg/mqtt"
	"github.com/safedrive-io/safedrive/pkg/options"
)

// Config carries the validated options needed to assemble a companion.
type Config struct {
	ApiOptions  *options.ApiOptions
	MqttOptions *options.MqttOptions
	HttpOptions *options.HttpOptions
	Thresholds  sensor.Thresholds
}

// NewCore builds just the synchronization core and its REST client.
// CLI subcommands use this without a stream or observer.
func (cfg *Config) NewCore(logger log.Logger) *state.Core {
	client := api.NewClient(cfg.ApiOptions.BaseURL, cfg.ApiOptions.Timeout)
	return state.NewCore(logger, client, clock.Real{}, cfg.Thresholds, cfg.ApiOptions.TokenFile)
}

// NewCompanion assembles the full daemon: core, push stream and the
// local observer surface. The MQTT client is created at run time, once
// the session token that authenticates it is known.
func (cfg *Config) NewCompanion(logger log.Logger) *Companion {
	core := cfg.NewCore(logger)
	return &Companion{
		log:      logger,
		core:     core,
		observer: observer.NewServer(logger.WithName("observer"), cfg.HttpOptions, core),
		cfg:      cfg,
	}
}

// newStream builds the push-channel binding for an authenticated core.
func (cfg *Config) newStream(logger log.Logger, core *state.Core) (*stream.Stream, error) {
	mqttCfg := cfg.MqttOptions.ToClientConfig()
	// The broker authenticates companions by their session token unless
	// the operator configured explicit credentials.
	if mqttCfg.Password == "" {
		mqttCfg.Password = core.Token()
	}

	client, err := mqtt.NewClient(mqttCfg)
	if err != nil {
		return nil, err
	}
	return stream.New(logger.WithName("stream"), client, cfg.MqttOptions.TopicRoot, core), nil
}
