package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withColor(t *testing.T, on bool) {
	t.Helper()
	prev := Enabled()
	SetEnabled(on)
	t.Cleanup(func() { SetEnabled(prev) })
}

func TestStylize(t *testing.T) {
	withColor(t, true)
	assert.Equal(t, Red+"x"+ResetCode, Stylize("x", Red))
	assert.Equal(t, Green+"✔"+ResetCode, CheckMark())

	SetEnabled(false)
	assert.Equal(t, "x", Stylize("x", Red))
	assert.Equal(t, "➜", Arrow())
}

func TestHighlightJSON(t *testing.T) {
	withColor(t, true)

	out := HighlightJSON(`{"name":"deepl","tier":1,"skipped":false,"err":null}`)
	assert.Contains(t, out, Blue+`"name"`+ResetCode+":")
	assert.Contains(t, out, Green+`"deepl"`+ResetCode)
	assert.Contains(t, out, Purple+"1"+ResetCode)
	assert.Contains(t, out, Yellow+"false"+ResetCode)
	assert.Contains(t, out, DimCode+"null"+ResetCode)

	SetEnabled(false)
	assert.Equal(t, `{"tier":1}`, HighlightJSON(`{"tier":1}`))
}
