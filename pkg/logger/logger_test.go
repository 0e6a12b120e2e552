package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchNamespace(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		pattern   string
		expected  bool
	}{
		{"wildcard all", "guardian:score", "*", true},
		{"exact match", "guardian:score", "guardian:score", true},
		{"exact mismatch", "guardian:score", "guardian:exec", false},
		{"prefix wildcard", "guardian:score", "guardian:*", true},
		{"prefix wildcard mismatch", "syncer:push", "guardian:*", false},
		{"suffix wildcard", "guardian:score", "*:score", true},
		{"middle wildcard", "guardian:deep:score", "guardian:*:score", true},
		{"no wildcard no match", "guardian", "guard", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, matchNamespace(tt.namespace, tt.pattern))
		})
	}
}

func TestNamespaceEnabledExclusion(t *testing.T) {
	original := debugEnv
	defer func() { debugEnv = original }()

	debugEnv = "guardian:*,-guardian:noisy"
	assert.True(t, namespaceEnabled("guardian:score"))
	assert.False(t, namespaceEnabled("guardian:noisy"))

	debugEnv = ""
	assert.False(t, namespaceEnabled("guardian:score"))

	debugEnv = "*"
	assert.True(t, namespaceEnabled("anything"))
}

func TestDisabledLoggerDoesNotPanic(t *testing.T) {
	l := &Logger{namespace: "test", enabled: false}
	l.Printf("format %d", 1)
	l.Print("plain")
	assert.False(t, l.Enabled())
}
