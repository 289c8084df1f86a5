package kafka_test

import (
	"context"
	"testing"

	"github.com/25thblame/prompt-shield/pkg/domain/telemetry"
	"github.com/25thblame/prompt-shield/pkg/infra/telemetry/kafka"
	"github.com/stretchr/testify/assert"
)

func TestValidateConfig(t *testing.T) {
	exporter := kafka.NewKafkaExporter()
	assert.Equal(t, "kafka", exporter.Name())

	tests := []struct {
		name     string
		settings map[string]interface{}
		wantErr  string
	}{
		{"valid", map[string]interface{}{"host": "localhost", "port": "9092", "topic": "attacks"}, ""},
		{"numeric port", map[string]interface{}{"host": "localhost", "port": 9092, "topic": "attacks"}, ""},
		{"missing host", map[string]interface{}{"port": "9092", "topic": "attacks"}, "host is required"},
		{"missing port", map[string]interface{}{"host": "localhost", "topic": "attacks"}, "port is required"},
		{"missing topic", map[string]interface{}{"host": "localhost", "port": "9092"}, "topic is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exporter.ValidateConfig(tt.settings)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestHandle_Uninitialized(t *testing.T) {
	err := kafka.NewKafkaExporter().Handle(context.Background(), telemetry.AttackEvent{})
	assert.ErrorContains(t, err, "not initialized")
}
