package bedrock_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/25thblame/prompt-shield/pkg/infra/oracle"
	"github.com/25thblame/prompt-shield/pkg/infra/oracle/providers/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	input  *bedrockruntime.InvokeModelInput
	output *bedrockruntime.InvokeModelOutput
	err    error
}

func (f *fakeRuntime) InvokeModel(
	_ context.Context,
	params *bedrockruntime.InvokeModelInput,
	_ ...func(*bedrockruntime.Options),
) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	return f.output, f.err
}

func TestSend(t *testing.T) {
	runtime := &fakeRuntime{
		output: &bedrockruntime.InvokeModelOutput{
			Body: []byte(`{"content":[{"type":"text","text":" {\"is_safe\":true} "}]}`),
		},
	}
	transport := bedrock.NewTransportWithRuntime(runtime)

	got, err := transport.Send(context.Background(), oracle.BuildRequest("hello", "", 0))
	require.NoError(t, err)
	assert.Equal(t, `{"is_safe":true}`, got)

	require.NotNil(t, runtime.input)
	assert.Equal(t, bedrock.DefaultModel, *runtime.input.ModelId)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(runtime.input.Body, &body))
	assert.Equal(t, bedrock.AnthropicVersion, body["anthropic_version"])
	assert.NotEmpty(t, body["system"])
}

func TestSend_EmptyContent(t *testing.T) {
	transport := bedrock.NewTransportWithRuntime(&fakeRuntime{
		output: &bedrockruntime.InvokeModelOutput{Body: []byte(`{"content":[]}`)},
	})
	_, err := transport.Send(context.Background(), oracle.BuildRequest("hello", "", 0))
	assert.ErrorContains(t, err, "no text content")
}

func TestSend_InvokeError(t *testing.T) {
	transport := bedrock.NewTransportWithRuntime(&fakeRuntime{err: errors.New("throttled")})
	_, err := transport.Send(context.Background(), oracle.BuildRequest("hello", "", 0))
	assert.ErrorContains(t, err, "failed to invoke model")
}
