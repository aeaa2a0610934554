package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopComment(t *testing.T) {
	assert.Equal(t, "", RawPost{}.TopComment())

	post := RawPost{Comments: []Comment{
		{Body: "first", Votes: 3},
		{Body: "best", Votes: 10},
		{Body: "tie", Votes: 10},
	}}
	assert.Equal(t, "best", post.TopComment())
}

func TestPolarityNormalized(t *testing.T) {
	p := Polarity{Negative: 0.2, Positive: 0.6}.Normalized()
	assert.InDelta(t, 0.25, p.Negative, 1e-12)
	assert.InDelta(t, 0.75, p.Positive, 1e-12)

	assert.Equal(t, Polarity{}, Polarity{}.Normalized())
}
