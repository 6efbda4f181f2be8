package contenttype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"x.png", "image/png"},
		{"preview.PNG", "image/png"},
		{"waiting.jpeg", "image/jpeg"},
		{"action.webp", "image/webp"},
		{"idle.wav", "audio/wav"},
		{"action.mp3", "audio/mpeg"},
		{"bonus.ogg", "audio/ogg"},
		{"notes.txt", "text/plain"},
		{"x.unknownext", Default},
		{"README", Default},
		{"", Default},
		{"archive.tar.unknownext", Default},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.filename))
		})
	}
}
