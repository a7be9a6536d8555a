package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetDefaultLogger(t *testing.T) {
	orig := defaultLogger
	t.Cleanup(func() { SetDefaultLogger(orig) })

	l := New(Config{
		Path:    filepath.Join(t.TempDir(), "pbl.log"),
		Program: "pbl",
	})
	t.Cleanup(func() { l.Close() })

	SetDefaultLogger(l)
	assert.Same(t, l, DefaultLogger())
	// Repeated lookups keep returning the configured instance.
	assert.Same(t, l, DefaultLogger())
}
