package scorer

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

// ortEnv manages global ONNX Runtime initialization (process-wide
// singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call
// multiple times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ONNXScorer is an implementation of the ConfidenceScorer interface
// backed by an exported classifier in ONNX format (a binary
// logistic-regression over the 4-element feature vector).
type ONNXScorer struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	numFeats   int64
	mu         sync.Mutex
	logger     *zap.Logger
}

// NewONNXScorer loads the ONNX model and creates an inference session.
// The ONNX Runtime shared library is expected alongside the model file.
func NewONNXScorer(modelPath string, logger *zap.Logger) (*ONNXScorer, error) {
	libPath := filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model has no inputs or outputs")
	}

	inputName := inputs[0].Name
	dims := inputs[0].Dimensions
	if len(dims) != 2 {
		return nil, fmt.Errorf("onnx: expected 2D input tensor, got %v", dims)
	}
	numFeats := dims[1]

	// Classifier exports carry a label output and a probability output;
	// prefer the probabilities.
	outputName := outputs[0].Name
	for _, out := range outputs {
		if out.Name == "probabilities" {
			outputName = out.Name
			break
		}
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(1)
	opts.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputName},
		[]string{outputName},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	logger.Info("Loaded ONNX confidence model",
		zap.String("model", modelPath),
		zap.Int64("features", numFeats))

	return &ONNXScorer{
		session:    session,
		inputName:  inputName,
		outputName: outputName,
		numFeats:   numFeats,
		logger:     logger,
	}, nil
}

// Score runs the feature vector through the model and returns the
// positive-class probability.
func (s *ONNXScorer) Score(ctx context.Context, features []float64) (float64, error) {
	if int64(len(features)) != s.numFeats {
		return 0, fmt.Errorf("onnx: expected %d features, got %d", s.numFeats, len(features))
	}

	data := make([]float32, len(features))
	for i, f := range features {
		data[i] = float32(f)
	}

	input, err := ort.NewTensor(ort.NewShape(1, s.numFeats), data)
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		return 0, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer output.Destroy()

	// Sessions are not documented as reentrant; serialize inference.
	s.mu.Lock()
	err = s.session.Run([]ort.Value{input}, []ort.Value{output})
	s.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("onnx: inference failed: %w", err)
	}

	probs := output.GetData()
	switch len(probs) {
	case 0:
		return 0, fmt.Errorf("onnx: empty model output")
	case 1:
		return float64(probs[0]), nil
	default:
		// [P(legit), P(fraud)]
		return float64(probs[1]), nil
	}
}

// Close releases the ONNX session resources.
func (s *ONNXScorer) Close() error {
	return s.session.Destroy()
}
