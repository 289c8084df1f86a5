package telemetry

import (
	"fmt"

	domain "github.com/25thblame/prompt-shield/pkg/domain/telemetry"
	factory "github.com/25thblame/prompt-shield/pkg/infra/telemetry"
)

type ExportersValidator interface {
	Validate(configs []domain.ExporterConfig) error
}

type exportersValidator struct {
	locator *factory.ExporterLocator
}

func NewTelemetryExportersValidator(locator *factory.ExporterLocator) ExportersValidator {
	return &exportersValidator{
		locator: locator,
	}
}

func (v *exportersValidator) Validate(configs []domain.ExporterConfig) error {
	for _, config := range configs {
		if err := v.locator.ValidateExporter(config); err != nil {
			return fmt.Errorf("exporter %s: %w", config.Name, err)
		}
	}
	return nil
}
