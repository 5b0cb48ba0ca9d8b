package segment

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPunkt(t *testing.T) *Punkt {
	t.Helper()
	p, err := NewPunkt("")
	require.NoError(t, err)
	return p
}

func TestPunkt_SplitsSentences(t *testing.T) {
	p := newTestPunkt(t)
	text := "The cell membrane is selectively permeable. Proteins mediate transport across it. Diffusion is passive."

	got, err := p.Segment(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"The cell membrane is selectively permeable.",
		"Proteins mediate transport across it.",
		"Diffusion is passive.",
	}, got)
}

func TestPunkt_OutputIsSubstringOfBuffer(t *testing.T) {
	p := newTestPunkt(t)
	text := "We measured the samples twice.  Results were consistent across runs. See Table 2 for details."

	got, err := p.Segment(context.Background(), text)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.NoError(t, Align(text, got))
	for _, s := range got {
		assert.Equal(t, strings.TrimSpace(s), s)
		assert.NotEmpty(t, s)
	}
}

func TestPunkt_Deterministic(t *testing.T) {
	p := newTestPunkt(t)
	text := "First finding here. Second finding there. A third one follows."
	a, err := p.Segment(context.Background(), text)
	require.NoError(t, err)
	b, err := p.Segment(context.Background(), text)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPunkt_EmptyBuffer(t *testing.T) {
	p := newTestPunkt(t)
	got, err := p.Segment(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPunkt_WhitespaceOnly(t *testing.T) {
	p := newTestPunkt(t)
	got, err := p.Segment(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPunkt_InvalidUTF8(t *testing.T) {
	p := newTestPunkt(t)
	_, err := p.Segment(context.Background(), "bad \xff\xfe bytes.")

	var segErr *SegmentationError
	require.True(t, errors.As(err, &segErr))
	assert.Equal(t, "punkt", segErr.Backend)
}

func TestPunkt_CancelledContext(t *testing.T) {
	p := newTestPunkt(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled context may still lose the race to a fast tokenizer; either
	// outcome is valid, but an error must be a SegmentationError.
	_, err := p.Segment(ctx, strings.Repeat("Sentence number one is here. ", 2000))
	if err != nil {
		var segErr *SegmentationError
		require.True(t, errors.As(err, &segErr))
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestPunkt_MissingTrainingFile(t *testing.T) {
	_, err := NewPunkt("/nonexistent/punkt.json")
	assert.Error(t, err)
}

func TestNew_Backends(t *testing.T) {
	s, err := New("punkt", "", "", "")
	require.NoError(t, err)
	assert.IsType(t, &Punkt{}, s)

	s, err = New("anthropic", "", "key", "model")
	require.NoError(t, err)
	assert.IsType(t, &ClaudeClient{}, s)

	_, err = New("spacy", "", "", "")
	assert.Error(t, err)
}
