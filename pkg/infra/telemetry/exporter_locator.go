package telemetry

import (
	"fmt"

	"github.com/25thblame/prompt-shield/pkg/domain/telemetry"
)

type ExporterLocator struct {
	exporters map[string]telemetry.Exporter
}

func NewExporterLocator(opts ...ExporterLocatorOption) *ExporterLocator {
	el := &ExporterLocator{
		exporters: make(map[string]telemetry.Exporter),
	}
	for _, opt := range opts {
		opt(el)
	}
	return el
}

// ValidateExporter checks cfg without building anything.
func (p *ExporterLocator) ValidateExporter(cfg telemetry.ExporterConfig) error {
	base, ok := p.exporters[cfg.Name]
	if !ok {
		return fmt.Errorf("unknown exporter: %s", cfg.Name)
	}
	return base.ValidateConfig(cfg.Settings)
}

// GetExporter validates cfg against the registered prototype and returns a
// configured exporter.
func (p *ExporterLocator) GetExporter(cfg telemetry.ExporterConfig) (telemetry.Exporter, error) {
	if err := p.ValidateExporter(cfg); err != nil {
		return nil, err
	}
	return p.exporters[cfg.Name].WithSettings(cfg.Settings)
}

// Build configures every exporter in cfgs, closing the ones already built
// when a later one fails.
func (p *ExporterLocator) Build(cfgs []telemetry.ExporterConfig) ([]telemetry.Exporter, error) {
	built := make([]telemetry.Exporter, 0, len(cfgs))
	for _, cfg := range cfgs {
		exporter, err := p.GetExporter(cfg)
		if err != nil {
			for _, e := range built {
				e.Close()
			}
			return nil, fmt.Errorf("exporter %s: %w", cfg.Name, err)
		}
		built = append(built, exporter)
	}
	return built, nil
}
