package telemetry

import (
	"github.com/25thblame/prompt-shield/pkg/config"
	domain "github.com/25thblame/prompt-shield/pkg/domain/telemetry"
	factory "github.com/25thblame/prompt-shield/pkg/infra/telemetry"
	"github.com/25thblame/prompt-shield/pkg/infra/telemetry/kafka"
)

type ExportersBuilder interface {
	Build(configs []domain.ExporterConfig) ([]domain.Exporter, error)
}

type exportersBuilder struct {
	locator   *factory.ExporterLocator
	validator ExportersValidator
}

func NewTelemetryExportersBuilder(locator *factory.ExporterLocator) ExportersBuilder {
	return &exportersBuilder{
		locator:   locator,
		validator: NewTelemetryExportersValidator(locator),
	}
}

// Build validates every config before any exporter opens a connection.
func (b *exportersBuilder) Build(configs []domain.ExporterConfig) ([]domain.Exporter, error) {
	if len(configs) == 0 {
		return nil, nil
	}
	if err := b.validator.Validate(configs); err != nil {
		return nil, err
	}
	return b.locator.Build(configs)
}

// ExporterConfigs lists the exporters enabled in cfg.
func ExporterConfigs(cfg *config.Config) []domain.ExporterConfig {
	var out []domain.ExporterConfig
	if cfg.Kafka.Enabled {
		out = append(out, domain.ExporterConfig{
			Name: kafka.ExporterName,
			Settings: map[string]interface{}{
				"host":      cfg.Kafka.Host,
				"port":      cfg.Kafka.Port,
				"topic":     cfg.Kafka.Topic,
				"client_id": cfg.Kafka.ClientID,
			},
		})
	}
	return out
}
