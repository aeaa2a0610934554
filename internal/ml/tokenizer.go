package ml

import (
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/model/wordpiece"
	"github.com/sugarme/tokenizer/normalizer"
	"github.com/sugarme/tokenizer/pretokenizer"
	"github.com/sugarme/tokenizer/processor"

	"marketpulse/pkg/errors"
)

const (
	tokenCLS = "[CLS]"
	tokenSEP = "[SEP]"
	tokenUNK = "[UNK]"
)

// encoder turns text into model inputs
type encoder interface {
	Encode(text string) (ids, mask []int64, err error)
}

// BertTokenizer is the uncased DistilBERT pipeline: lowercase and strip
// accents, split on whitespace and punctuation, WordPiece, then wrap in
// [CLS] ... [SEP] truncated to maxLen ids.
type BertTokenizer struct {
	mu sync.Mutex
	tk *tokenizer.Tokenizer
}

var _ encoder = (*BertTokenizer)(nil)

// LoadVocab builds a tokenizer from a vocab.txt file, one token per line
func LoadVocab(path string, maxLen int) (*BertTokenizer, error) {
	model, err := wordpiece.NewWordPieceFromFile(path, tokenUNK)
	if err != nil {
		return nil, errors.Wrapf(err, "load vocab %s", path)
	}

	tk := tokenizer.NewTokenizer(model)
	tk.WithNormalizer(normalizer.NewBertNormalizer(true, true, true, true))
	tk.WithPreTokenizer(pretokenizer.NewBertPreTokenizer())

	clsID, ok := tk.TokenToId(tokenCLS)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "vocab lacks %s", tokenCLS)
	}
	sepID, ok := tk.TokenToId(tokenSEP)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "vocab lacks %s", tokenSEP)
	}
	if _, ok := tk.TokenToId(tokenUNK); !ok {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "vocab lacks %s", tokenUNK)
	}
	tk.WithPostProcessor(processor.NewBertProcessing(
		processor.PostToken{Id: sepID, Value: tokenSEP},
		processor.PostToken{Id: clsID, Value: tokenCLS},
	))

	if maxLen < 2 {
		maxLen = 2
	}
	tk.WithTruncation(&tokenizer.TruncationParams{
		MaxLength: maxLen,
		Strategy:  tokenizer.LongestFirst,
	})
	return &BertTokenizer{tk: tk}, nil
}

// Encode returns input ids and attention mask for text
func (t *BertTokenizer) Encode(text string) ([]int64, []int64, error) {
	t.mu.Lock()
	en, err := t.tk.EncodeSingle(text, true)
	t.mu.Unlock()
	if err != nil {
		return nil, nil, errors.Wrap(err, "tokenize")
	}

	ids := make([]int64, len(en.Ids))
	mask := make([]int64, len(en.Ids))
	for i, id := range en.Ids {
		ids[i] = int64(id)
		mask[i] = 1
		if i < len(en.AttentionMask) {
			mask[i] = int64(en.AttentionMask[i])
		}
	}
	return ids, mask, nil
}
