package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoaderNotReadyBeforeLoad(t *testing.T) {
	loader := NewLoader("models/cloud_classifier.onnx", "models/labels.json", zap.NewNop())

	assert.False(t, loader.Ready())

	_, err := loader.Predict(context.Background(), make([]float32, 224*224*3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotReady))

	_, err = loader.Classify(context.Background(), make([]float32, 224*224*3))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotReady))
}
