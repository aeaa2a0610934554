package ml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVocab = `[PAD]
[UNK]
[CLS]
[SEP]
the
stock
to
moon
!
go
##ing
cafe
,`

func writeVocab(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newTestTokenizer(t *testing.T, maxLen int) *BertTokenizer {
	t.Helper()
	tok, err := LoadVocab(writeVocab(t, testVocab), maxLen)
	require.NoError(t, err)
	return tok
}

func TestEncode(t *testing.T) {
	tok := newTestTokenizer(t, 32)

	ids, mask, err := tok.Encode("The STOCK going to the moon!")
	require.NoError(t, err)
	// [CLS] the stock go ##ing to the moon ! [SEP]
	assert.Equal(t, []int64{2, 4, 5, 9, 10, 6, 4, 7, 8, 3}, ids)
	assert.Len(t, mask, len(ids))
	for _, m := range mask {
		assert.Equal(t, int64(1), m)
	}
}

func TestEncodeStripsAccentsAndMarksUnknown(t *testing.T) {
	tok := newTestTokenizer(t, 32)

	ids, _, err := tok.Encode("Café, lambo")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 11, 12, 1, 3}, ids)
}

func TestEncodeTruncates(t *testing.T) {
	tok := newTestTokenizer(t, 4)

	ids, mask, err := tok.Encode("the the the the the the")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 4, 3}, ids)
	assert.Len(t, mask, 4)
}

func TestLoadVocabRequiresSpecialTokens(t *testing.T) {
	_, err := LoadVocab(writeVocab(t, "[UNK]\nthe\nstock"), 8)
	assert.Error(t, err)

	_, err = LoadVocab(filepath.Join(t.TempDir(), "missing.txt"), 8)
	assert.Error(t, err)
}
