package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

// DecodeMedia opens an mp3 or wav file. The extension picks the decoder;
// unknown extensions try mp3 then wav. The caller closes the streamer.
func DecodeMedia(path string) (beep.StreamSeekCloser, beep.Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return decodeWith(path, decodeMP3)
	case ".wav":
		return decodeWith(path, decodeWAV)
	}

	if s, f, err := decodeWith(path, decodeMP3); err == nil {
		return s, f, nil
	}
	return decodeWith(path, decodeWAV)
}

type decoder func(f *os.File) (beep.StreamSeekCloser, beep.Format, error)

func decodeMP3(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return mp3.Decode(f) }
func decodeWAV(f *os.File) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(f) }

func decodeWith(path string, dec decoder) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}
	s, format, err := dec(f)
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return s, format, nil
}

// GetDuration returns the duration of the audio file at the given path.
func GetDuration(path string) (time.Duration, error) {
	streamer, format, err := DecodeMedia(path)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}
