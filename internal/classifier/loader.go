package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/Joke-rk/line-cloud-bot/internal/preprocess"
)

// Loader owns the ONNX session and the ordered label set. Load runs once,
// off the server-start path; until it succeeds every classification request
// sees ErrNotReady. There is no retry and no reload.
type Loader struct {
	modelPath  string
	labelsPath string
	logger     *zap.Logger

	ready   atomic.Bool
	labels  []string
	session *ort.DynamicAdvancedSession

	// sem bounds concurrent session.Run calls so CPU-bound inference
	// cannot starve sibling events.
	sem chan struct{}
}

// NewLoader builds a loader for the artifacts at modelPath and labelsPath.
func NewLoader(modelPath, labelsPath string, logger *zap.Logger) *Loader {
	return &Loader{
		modelPath:  modelPath,
		labelsPath: labelsPath,
		logger:     logger.Named("model_loader"),
		sem:        make(chan struct{}, runtime.NumCPU()),
	}
}

// Load reads the label file, initializes the ONNX runtime, validates that
// the label count aligns with the model output vector, and opens the
// session. On any failure readiness stays false permanently.
func (l *Loader) Load() error {
	labels, err := loadLabels(l.labelsPath)
	if err != nil {
		l.logger.Error("label load failed", zap.String("path", l.labelsPath), zap.Error(err))
		return err
	}

	if err := ort.InitializeEnvironment(); err != nil {
		l.logger.Error("onnx environment init failed", zap.Error(err))
		return fmt.Errorf("initialize onnx environment: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(l.modelPath)
	if err != nil {
		l.logger.Error("model inspect failed", zap.String("path", l.modelPath), zap.Error(err))
		return fmt.Errorf("inspect model: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		err := fmt.Errorf("expected 1 input and 1 output, model has %d/%d", len(inputs), len(outputs))
		l.logger.Error("unsupported model signature", zap.Error(err))
		return err
	}

	if err := checkLabelAlignment(outputs[0].Dimensions, labels); err != nil {
		l.logger.Error("label alignment check failed",
			zap.Int("labels", len(labels)),
			zap.Int64s("output_shape", outputs[0].Dimensions),
			zap.Error(err))
		return err
	}

	session, err := ort.NewDynamicAdvancedSession(l.modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, nil)
	if err != nil {
		l.logger.Error("session create failed", zap.Error(err))
		return fmt.Errorf("create onnx session: %w", err)
	}

	l.labels = labels
	l.session = session
	l.ready.Store(true)

	l.logger.Info("model loaded",
		zap.String("model", l.modelPath),
		zap.Strings("labels", labels))
	return nil
}

// Ready reports whether classification requests can be served.
func (l *Loader) Ready() bool {
	return l.ready.Load()
}

// Labels returns the ordered label set. Valid only after Ready.
func (l *Loader) Labels() []string {
	return l.labels
}

// Predict runs tensor through the model and returns the probability vector,
// index-aligned with Labels.
func (l *Loader) Predict(ctx context.Context, tensor []float32) ([]float32, error) {
	if !l.ready.Load() {
		return nil, ErrNotReady
	}

	shape := preprocess.Shape()
	expected := 1
	for _, dim := range shape {
		expected *= int(dim)
	}
	if len(tensor) != expected {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrInference, expected, len(tensor))
	}

	l.sem <- struct{}{}
	defer func() { <-l.sem }()

	input, err := ort.NewTensor(ort.NewShape(shape...), tensor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(l.labels))))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	defer output.Destroy()

	if err := l.session.Run([]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}

	data := output.GetData()
	vector := make([]float32, len(data))
	copy(vector, data)
	return vector, nil
}

// Classify runs tensor through the model and selects the best label.
func (l *Loader) Classify(ctx context.Context, tensor []float32) (Prediction, error) {
	vector, err := l.Predict(ctx, tensor)
	if err != nil {
		return Prediction{}, err
	}
	return BestOf(vector, l.labels)
}

// Close releases the session and the runtime environment.
func (l *Loader) Close() {
	if l.session != nil {
		l.session.Destroy()
	}
	ort.DestroyEnvironment()
}

func loadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}

	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return nil, fmt.Errorf("parse labels: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("parse labels: empty label list")
	}
	return labels, nil
}

// checkLabelAlignment verifies the model output vector length equals the
// label count. The class count is the last output dimension; dynamic
// dimensions (<= 0) cannot be checked statically and are accepted.
func checkLabelAlignment(dims []int64, labels []string) error {
	if len(dims) == 0 {
		return fmt.Errorf("%w: model reports no output shape", ErrLabelMismatch)
	}
	classes := dims[len(dims)-1]
	if classes > 0 && classes != int64(len(labels)) {
		return fmt.Errorf("%w: model outputs %d classes, label file has %d", ErrLabelMismatch, classes, len(labels))
	}
	return nil
}
