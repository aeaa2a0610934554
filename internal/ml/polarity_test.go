package ml

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "marketpulse/pkg/errors"
)

type fixedLogits struct {
	logits []float32
	err    error
	gotLen int
}

func (f *fixedLogits) Logits(ids, _ []int64) ([]float32, error) {
	f.gotLen = len(ids)
	return f.logits, f.err
}

type failingEncoder struct{}

func (failingEncoder) Encode(string) ([]int64, []int64, error) {
	return nil, nil, errors.New("bad input")
}

func TestSoftmax(t *testing.T) {
	p := Softmax([]float32{0, 0})
	assert.InDelta(t, 0.5, p[0], 1e-12)

	p = Softmax([]float32{1000, 0})
	assert.InDelta(t, 1, p[0], 1e-12)
	assert.InDelta(t, 0, p[1], 1e-12)
}

func TestPolarityScorerMapsLabels(t *testing.T) {
	model := &fixedLogits{logits: []float32{-2, 2}}
	s := newPolarityScorer(model, newTestTokenizer(t, 8), 8, 20)

	p, err := s.Score(context.Background(), "the stock to the moon")
	require.NoError(t, err)
	assert.Greater(t, p.Positive, 0.98)
	assert.InDelta(t, 1, p.Positive+p.Negative, 1e-12)
	assert.Equal(t, 7, model.gotLen)
	assert.Equal(t, 20, s.MaxTextLength())
}

func TestPolarityScorerWrapsModelErrors(t *testing.T) {
	s := newPolarityScorer(&fixedLogits{err: errors.New("ort failure")}, newTestTokenizer(t, 32), 0, 0)
	_, err := s.Score(context.Background(), "x")
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrScoringFailed))
	assert.Equal(t, 512, s.MaxTextLength())

	s = newPolarityScorer(&fixedLogits{logits: []float32{0, 0}}, failingEncoder{}, 0, 0)
	_, err = s.Score(context.Background(), "x")
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrScoringFailed))
}

func TestPolarityScorerRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newPolarityScorer(&fixedLogits{}, newTestTokenizer(t, 32), 0, 0).Score(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolarityScorerWithModel(t *testing.T) {
	modelPath := "../../models/distilbert-sst2.onnx"
	vocabPath := "../../models/vocab.txt"
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		t.Skip("Model file not found, skipping test. Export it with optimum-cli into models/")
	}

	s, err := NewPolarityScorer(PolarityConfig{
		ModelPath:   modelPath,
		VocabPath:   vocabPath,
		LibraryPath: os.Getenv("ONNXRUNTIME_LIB"),
	})
	require.NoError(t, err)
	defer s.Close()

	good, err := s.Score(context.Background(), "This is a wonderful, fantastic result")
	require.NoError(t, err)
	bad, err := s.Score(context.Background(), "This is a terrible, awful disaster")
	require.NoError(t, err)

	assert.Greater(t, good.Positive, good.Negative)
	assert.Greater(t, bad.Negative, bad.Positive)
}
