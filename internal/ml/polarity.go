package ml

import (
	"context"
	"math"
	"unicode/utf8"

	"marketpulse/internal/domain/sentiment"
	"marketpulse/pkg/errors"
)

// SST-2 label order of the exported DistilBERT model
const (
	labelNegative = 0
	labelPositive = 1
)

const defaultMaxTokens = 512

type logitModel interface {
	Logits(ids, mask []int64) ([]float32, error)
}

// PolarityScorer scores text with a binary sentiment transformer
type PolarityScorer struct {
	model     logitModel
	tokenizer encoder
	maxChars  int
	closer    func()
}

var _ sentiment.TextScorer = (*PolarityScorer)(nil)

// PolarityConfig locates the model files
type PolarityConfig struct {
	ModelPath   string
	VocabPath   string
	LibraryPath string
	MaxTokens   int // sequence length limit, 512 for DistilBERT
	MaxChars    int // rune limit advertised to callers
}

// NewPolarityScorer loads the ONNX model and its vocabulary
func NewPolarityScorer(cfg PolarityConfig) (*PolarityScorer, error) {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	tok, err := LoadVocab(cfg.VocabPath, cfg.MaxTokens)
	if err != nil {
		return nil, err
	}
	model, err := LoadSequenceClassifier(cfg.ModelPath, cfg.LibraryPath, 2)
	if err != nil {
		return nil, err
	}
	s := newPolarityScorer(model, tok, cfg.MaxTokens, cfg.MaxChars)
	s.closer = model.Destroy
	return s, nil
}

func newPolarityScorer(model logitModel, tok encoder, maxTokens, maxChars int) *PolarityScorer {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if maxChars <= 0 {
		maxChars = maxTokens
	}
	return &PolarityScorer{model: model, tokenizer: tok, maxChars: maxChars}
}

// Score implements sentiment.TextScorer
func (s *PolarityScorer) Score(ctx context.Context, text string) (sentiment.Polarity, error) {
	if err := ctx.Err(); err != nil {
		return sentiment.Polarity{}, err
	}
	if utf8.RuneCountInString(text) > s.maxChars {
		text = string([]rune(text)[:s.maxChars])
	}

	ids, mask, err := s.tokenizer.Encode(text)
	if err != nil {
		return sentiment.Polarity{}, errors.Mark(err, errors.ErrScoringFailed)
	}
	logits, err := s.model.Logits(ids, mask)
	if err != nil {
		return sentiment.Polarity{}, errors.Mark(err, errors.ErrScoringFailed)
	}
	if len(logits) < 2 {
		return sentiment.Polarity{}, errors.Wrapf(errors.ErrScoringFailed, "expected 2 logits, got %d", len(logits))
	}

	probs := Softmax(logits)
	return sentiment.Polarity{Negative: probs[labelNegative], Positive: probs[labelPositive]}, nil
}

// MaxTextLength implements sentiment.TextScorer
func (s *PolarityScorer) MaxTextLength() int {
	return s.maxChars
}

// Close releases the model session
func (s *PolarityScorer) Close() {
	if s.closer != nil {
		s.closer()
		s.closer = nil
	}
}

// Softmax converts logits into probabilities
func Softmax(logits []float32) []float64 {
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		maxLogit = math.Max(maxLogit, float64(l))
	}
	out := make([]float64, len(logits))
	sum := 0.0
	for i, l := range logits {
		out[i] = math.Exp(float64(l) - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
