package cachekey

import (
	"testing"

	"rivet/internal/fingerprint"

	"github.com/stretchr/testify/assert"
)

func TestSHA256Builder(t *testing.T) {
	t.Run("SameInputSameKey", func(t *testing.T) {
		a := NewSHA256Builder()
		a.PutString("classpath")
		a.PutHash(fingerprint.Hash("h1"))

		b := NewSHA256Builder()
		b.PutString("classpath")
		b.PutHash(fingerprint.Hash("h1"))

		assert.Equal(t, a.Sum(), b.Sum())
	})

	t.Run("FramingSeparatesAdjacentComponents", func(t *testing.T) {
		a := NewSHA256Builder()
		a.PutString("ab")
		a.PutString("c")

		b := NewSHA256Builder()
		b.PutString("a")
		b.PutString("bc")

		assert.NotEqual(t, a.Sum(), b.Sum())
	})

	t.Run("EmptyComponentStillContributes", func(t *testing.T) {
		a := NewSHA256Builder()
		a.PutString("x")

		b := NewSHA256Builder()
		b.PutString("x")
		b.PutString("")

		assert.NotEqual(t, a.Sum(), b.Sum())
	})

	t.Run("SumDoesNotResetState", func(t *testing.T) {
		a := NewSHA256Builder()
		a.PutString("x")
		first := a.Sum()
		a.PutString("y")
		assert.NotEqual(t, first, a.Sum())
	})
}
