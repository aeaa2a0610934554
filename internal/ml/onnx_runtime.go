package ml

import (
	"sync"

	onnxruntime "github.com/yalue/onnxruntime_go"

	"marketpulse/pkg/errors"
)

var (
	envOnce sync.Once
	envErr  error
)

// InitEnvironment initializes the ONNX Runtime environment once per process.
// libraryPath may be empty to use the platform default.
func InitEnvironment(libraryPath string) error {
	envOnce.Do(func() {
		if libraryPath != "" {
			onnxruntime.SetSharedLibraryPath(libraryPath)
		}
		if err := onnxruntime.InitializeEnvironment(); err != nil {
			envErr = errors.Wrap(err, "failed to initialize ONNX runtime")
		}
	})
	return envErr
}

// DestroyEnvironment releases the ONNX Runtime environment
func DestroyEnvironment() error {
	if !onnxruntime.IsInitialized() {
		return nil
	}
	return onnxruntime.DestroyEnvironment()
}

// SequenceClassifier wraps an ONNX transformer exported for sequence
// classification: inputs input_ids and attention_mask (int64 [1, seq]),
// output logits (float32 [1, classes]).
type SequenceClassifier struct {
	session    *onnxruntime.DynamicAdvancedSession
	numClasses int
}

// LoadSequenceClassifier loads the model at modelPath
func LoadSequenceClassifier(modelPath, libraryPath string, numClasses int) (*SequenceClassifier, error) {
	if err := InitEnvironment(libraryPath); err != nil {
		return nil, err
	}

	options, err := onnxruntime.NewSessionOptions()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()

	session, err := onnxruntime.NewDynamicAdvancedSession(modelPath,
		[]string{"input_ids", "attention_mask"}, []string{"logits"}, options)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load ONNX model %s", modelPath)
	}

	return &SequenceClassifier{session: session, numClasses: numClasses}, nil
}

// Logits runs one forward pass for a single encoded sequence
func (m *SequenceClassifier) Logits(ids, mask []int64) ([]float32, error) {
	if m.session == nil {
		return nil, errors.New("model session is closed")
	}
	if len(ids) == 0 || len(ids) != len(mask) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "ids/mask length %d/%d", len(ids), len(mask))
	}

	shape := onnxruntime.NewShape(1, int64(len(ids)))
	idsTensor, err := onnxruntime.NewTensor(shape, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create input_ids tensor")
	}
	defer idsTensor.Destroy()

	maskTensor, err := onnxruntime.NewTensor(shape, mask)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create attention_mask tensor")
	}
	defer maskTensor.Destroy()

	logits := make([]float32, m.numClasses)
	logitsTensor, err := onnxruntime.NewTensor(onnxruntime.NewShape(1, int64(m.numClasses)), logits)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create logits tensor")
	}
	defer logitsTensor.Destroy()

	err = m.session.Run(
		[]onnxruntime.Value{idsTensor, maskTensor},
		[]onnxruntime.Value{logitsTensor},
	)
	if err != nil {
		return nil, errors.Wrap(err, "inference failed")
	}

	return logitsTensor.GetData(), nil
}

// Destroy cleans up the ONNX session
func (m *SequenceClassifier) Destroy() {
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
}
