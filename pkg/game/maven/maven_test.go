package maven

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		coord   string
		want    Coordinate
		wantErr bool
	}{
		{
			name:  "plain",
			coord: "org.ow2.asm:asm:9.8",
			want:  Coordinate{Group: "org.ow2.asm", Artifact: "asm", Version: "9.8"},
		},
		{
			name:  "classifier",
			coord: "org.lwjgl:lwjgl:3.3.3:natives-linux-64",
			want:  Coordinate{Group: "org.lwjgl", Artifact: "lwjgl", Version: "3.3.3", Classifier: "natives-linux-64"},
		},
		{
			name:    "two segments",
			coord:   "org.ow2.asm:asm",
			wantErr: true,
		},
		{
			name:    "empty",
			coord:   "",
			wantErr: true,
		},
		{
			name:    "blank segment",
			coord:   "org.ow2.asm::9.8",
			wantErr: true,
		},
		{
			name:    "too many segments",
			coord:   "a:b:c:d:e",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.coord)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidCoordinate))
				var ce *CoordinateError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, tt.coord, ce.Input)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelPath(t *testing.T) {
	c, err := Parse("com.google.guava:guava:32.1.2-jre")
	require.NoError(t, err)

	// Pure mapping: repeated calls yield the same path.
	assert.Equal(t, "com/google/guava/guava/32.1.2-jre/guava-32.1.2-jre.jar", c.RelPath())
	assert.Equal(t, c.RelPath(), c.RelPath())
	assert.Equal(t, "guava-32.1.2-jre.jar", c.FileName())
}

func TestRelPathClassifier(t *testing.T) {
	c, err := Parse("org.lwjgl:lwjgl-glfw:3.3.3:natives-macos-arm64")
	require.NoError(t, err)
	assert.Equal(t, "org/lwjgl/lwjgl-glfw/3.3.3/lwjgl-glfw-3.3.3-natives-macos-arm64.jar", c.RelPath())
}

func TestURL(t *testing.T) {
	c, err := Parse("net.fabricmc:fabric-loader:0.15.11")
	require.NoError(t, err)

	want := "https://maven.fabricmc.net/net/fabricmc/fabric-loader/0.15.11/fabric-loader-0.15.11.jar"
	assert.Equal(t, want, c.URL("https://maven.fabricmc.net"))
	assert.Equal(t, want, c.URL("https://maven.fabricmc.net/"))
}

func TestStringRoundTrip(t *testing.T) {
	for _, coord := range []string{
		"org.ow2.asm:asm:9.8",
		"org.lwjgl:lwjgl:3.3.3:natives-windows-64",
	} {
		c, err := Parse(coord)
		require.NoError(t, err)
		assert.Equal(t, coord, c.String())
	}
}
