package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean_TrimsAndDropsEmpty(t *testing.T) {
	got := Clean([]string{"  First one. ", "", "\n\t", "Second.\n"})
	assert.Equal(t, []string{"First one.", "Second."}, got)
}

func TestClean_Nil(t *testing.T) {
	got := Clean(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestClean_KeepsInnerText(t *testing.T) {
	got := Clean([]string{" Cats  are great . "})
	assert.Equal(t, []string{"Cats  are great ."}, got)
}

func TestAlign_InOrder(t *testing.T) {
	text := "Cells divide. They grow. Cells divide."
	assert.NoError(t, Align(text, []string{"Cells divide.", "They grow.", "Cells divide."}))
}

func TestAlign_EmptyList(t *testing.T) {
	assert.NoError(t, Align("anything", nil))
	assert.NoError(t, Align("", nil))
}

func TestAlign_RewrittenSentence(t *testing.T) {
	err := Align("Cats are great .", []string{"Cats are great."})
	assert.Error(t, err)
}

func TestAlign_OutOfOrder(t *testing.T) {
	err := Align("A one. B two.", []string{"B two.", "A one."})
	assert.Error(t, err)
}

func TestAlign_RepeatBeyondBuffer(t *testing.T) {
	// The same sentence cannot be matched twice against a single occurrence.
	err := Align("Only once.", []string{"Only once.", "Only once."})
	assert.Error(t, err)
}
