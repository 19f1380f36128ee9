package keygen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestObjectKey_Unique(t *testing.T) {
	first := ObjectKey("p_sarkar", "sunset.jpg")
	second := ObjectKey("p_sarkar", "sunset.jpg")

	require.NotEqual(t, first, second)
	for _, k := range []string{first, second} {
		require.True(t, strings.HasPrefix(k, "p_sarkar/"))
		require.True(t, strings.HasSuffix(k, "-sunset.jpg"))
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "cat.png", want: "cat.png"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: `C:\photos\dog pic.jpg`, want: "dog_pic.jpg"},
		{in: "", want: "unnamed"},
		{in: "..", want: "unnamed"},
		{in: "фото.gif", want: "____.gif"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestBaseName(t *testing.T) {
	require.Equal(t, "a.jpg", BaseName("dir/sub/a.jpg"))
	require.Equal(t, "a.jpg", BaseName(`dir\a.jpg`))
	require.Equal(t, "", BaseName(""))
}
