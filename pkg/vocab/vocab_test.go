package vocab

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hablago/pkg/request"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Entry
		wantErr bool
	}{
		{
			name:  "SingleLine",
			input: "hola,你好",
			want:  []Entry{{Source: "hola", Target: "你好"}},
		},
		{
			name:  "TrimsFieldsAndOuterWhitespace",
			input: "\n  gato , 猫 \r\nperro,狗\n\n",
			want:  []Entry{{Source: "gato", Target: "猫"}, {Source: "perro", Target: "狗"}},
		},
		{
			name:  "ExtraColumnsIgnored",
			input: "casa,房子,noun",
			want:  []Entry{{Source: "casa", Target: "房子"}},
		},
		{
			name:  "ByteOrderMark",
			input: "\ufeffsí,是",
			want:  []Entry{{Source: "sí", Target: "是"}},
		},
		{
			name:  "EmptyTarget",
			input: "nada,",
			want:  []Entry{{Source: "nada", Target: ""}},
		},
		{
			name:    "MissingComma",
			input:   "hola,你好\nadios",
			wantErr: true,
		},
		{
			name:    "BlankInteriorLine",
			input:   "hola,你好\n\nadios,再见",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				var pe *ParseError
				assert.True(t, errors.As(err, &pe))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_CountEqualsLines(t *testing.T) {
	got, err := Parse("uno,一\ndos,二\ntres,三")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestParse_Empty(t *testing.T) {
	for _, in := range []string{"", "   \n\t"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrEmpty)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.csv")
	require.NoError(t, os.WriteFile(path, []byte("agua,水\nfuego,火\n"), 0o644))

	entries, err := Load(context.Background(), path, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"agua", "水"}, {"fuego", "火"}}, entries)

	_, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), time.Second)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vocab.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("libro,书\n"))
	}))
	defer srv.Close()

	entries, err := Load(context.Background(), srv.URL+"/vocab.csv", time.Second)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{"libro", "书"}}, entries)

	_, err = Load(context.Background(), srv.URL+"/missing.csv", time.Second)
	var se *request.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com/a.csv"))
	assert.True(t, IsURL("http://localhost/a.csv"))
	assert.False(t, IsURL("spanish_vocab_8000_zh.csv"))
	assert.False(t, IsURL("/srv/http/a.csv"))
}
