package speech

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hablago/pkg/config"
	"hablago/pkg/tracker"
	"hablago/pkg/tts"
)

type fakeEngine struct {
	mu          sync.Mutex
	calls       int
	lastVoice   string
	lastProsody tts.Prosody
	voices      []tts.Voice
	voiceCalls  int
	err         error
}

func (f *fakeEngine) Synthesize(ctx context.Context, text, voice string, prosody tts.Prosody, outputPath string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastVoice = voice
	f.lastProsody = prosody
	if f.err != nil {
		return "", f.err
	}
	if err := os.WriteFile(outputPath+".mp3", make([]byte, tts.MinAudioSize+10), 0o644); err != nil {
		return "", err
	}
	return "mp3", nil
}

func (f *fakeEngine) Voices(ctx context.Context) ([]tts.Voice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voiceCalls++
	return f.voices, nil
}

func (f *fakeEngine) snapshot() (int, string, tts.Prosody) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.lastVoice, f.lastProsody
}

type fakePlayer struct {
	mu    sync.Mutex
	hold  bool
	paths []string
	stops int
}

func (f *fakePlayer) Play(path string, onComplete func()) error {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	hold := f.hold
	f.mu.Unlock()
	if !hold && onComplete != nil {
		go onComplete()
	}
	return nil
}

func (f *fakePlayer) Stop() {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
}

func (f *fakePlayer) IsPlaying() bool   { return false }
func (f *fakePlayer) SetVolume(float64) {}
func (f *fakePlayer) Volume() float64   { return 1 }
func (f *fakePlayer) played() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

type mapPersister struct {
	mu   sync.Mutex
	vals map[string]string
}

func (m *mapPersister) SetState(ctx context.Context, key, val string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vals == nil {
		m.vals = map[string]string{}
	}
	m.vals[key] = val
	return nil
}

var spanishVoices = []tts.Voice{
	{ID: "en-US-AriaNeural", Language: "en-US"},
	{ID: "es-MX-DaliaNeural", Language: "es-MX"},
	{ID: "es-ES-ElviraNeural", Language: "es-ES"},
}

func newTestPronouncer(t *testing.T, eng *fakeEngine, pl *fakePlayer) *Pronouncer {
	t.Helper()
	opts := Options{
		EngineName: "fake",
		Locale:     "es-ES",
		CacheDir:   t.TempDir(),
		Tracker:    tracker.New(),
	}
	if eng != nil {
		opts.Engine = eng
	}
	if pl != nil {
		opts.Player = pl
	}
	return New(opts)
}

func TestSelectVoice(t *testing.T) {
	tests := []struct {
		name   string
		voices []tts.Voice
		locale string
		want   string
		ok     bool
	}{
		{"Exact", spanishVoices, "es-ES", "es-ES-ElviraNeural", true},
		{"CaseInsensitive", spanishVoices, "ES-es", "es-ES-ElviraNeural", true},
		{"BaseLanguage", spanishVoices, "es-AR", "es-MX-DaliaNeural", true},
		{"FirstVoiceFallback", spanishVoices, "fr-FR", "en-US-AriaNeural", true},
		{"UnderscoreTag", []tts.Voice{{ID: "sapi-helena", Language: "es_ES"}}, "es-CO", "sapi-helena", true},
		{"Empty", nil, "es-ES", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := SelectVoice(tt.voices, tt.locale)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, v.ID)
		})
	}
}

func TestSynthesize_Cache(t *testing.T) {
	eng := &fakeEngine{voices: spanishVoices}
	p := newTestPronouncer(t, eng, nil)
	ctx := context.Background()

	first, err := p.Synthesize(ctx, "hola")
	require.NoError(t, err)
	second, err := p.Synthesize(ctx, "  hola ")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	calls, voice, prosody := eng.snapshot()
	assert.Equal(t, 1, calls)
	assert.Equal(t, "es-ES-ElviraNeural", voice)
	assert.InDelta(t, 0.8, prosody.Rate, 1e-9)

	p.SetRate(ctx, 1.5)
	third, err := p.Synthesize(ctx, "hola")
	require.NoError(t, err)
	assert.NotEqual(t, first, third)

	calls, _, _ = eng.snapshot()
	assert.Equal(t, 2, calls)

	stats := p.tracker.Snapshot()["fake"]
	assert.EqualValues(t, 1, stats.CacheHits)
	assert.EqualValues(t, 2, stats.CacheMisses)
}

func TestSynthesize_Errors(t *testing.T) {
	t.Run("NoEngine", func(t *testing.T) {
		p := newTestPronouncer(t, nil, nil)
		_, err := p.Synthesize(context.Background(), "hola")
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.False(t, p.Available())
	})

	t.Run("EmptyText", func(t *testing.T) {
		p := newTestPronouncer(t, &fakeEngine{}, nil)
		_, err := p.Synthesize(context.Background(), "   ")
		assert.Error(t, err)
	})

	t.Run("FatalDisables", func(t *testing.T) {
		eng := &fakeEngine{err: tts.NewFatalError(401, "bad key")}
		p := newTestPronouncer(t, eng, nil)
		_, err := p.Synthesize(context.Background(), "hola")
		require.Error(t, err)
		assert.True(t, tts.IsFatalError(err))
		assert.False(t, p.Available())

		_, err = p.Synthesize(context.Background(), "adiós")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("TransientKeepsEngine", func(t *testing.T) {
		eng := &fakeEngine{err: errors.New("timeout")}
		p := newTestPronouncer(t, eng, nil)
		_, err := p.Synthesize(context.Background(), "hola")
		require.Error(t, err)
		assert.True(t, p.Available())
	})
}

func TestSpeakSync_Plays(t *testing.T) {
	pl := &fakePlayer{}
	p := newTestPronouncer(t, &fakeEngine{voices: spanishVoices}, pl)

	require.NoError(t, p.SpeakSync(context.Background(), "gato"))
	played := pl.played()
	require.Len(t, played, 1)

	path, err := p.Synthesize(context.Background(), "gato")
	require.NoError(t, err)
	assert.Equal(t, path, played[0])
}

func TestSpeakSync_NoPlayer(t *testing.T) {
	p := newTestPronouncer(t, &fakeEngine{}, nil)
	assert.ErrorIs(t, p.SpeakSync(context.Background(), "gato"), ErrUnavailable)
}

func TestSpeak_NoOps(t *testing.T) {
	t.Run("EmptyText", func(t *testing.T) {
		pl := &fakePlayer{}
		p := newTestPronouncer(t, &fakeEngine{}, pl)
		p.Speak(context.Background(), "  ")
		p.Wait()
		assert.Empty(t, pl.played())
	})

	t.Run("NoEngine", func(t *testing.T) {
		pl := &fakePlayer{}
		p := newTestPronouncer(t, nil, pl)
		p.Speak(context.Background(), "perro")
		p.Wait()
		assert.Empty(t, pl.played())
	})
}

func TestSpeak_CancelsPrevious(t *testing.T) {
	pl := &fakePlayer{hold: true}
	p := newTestPronouncer(t, &fakeEngine{voices: spanishVoices}, pl)
	ctx := context.Background()

	p.Speak(ctx, "uno")
	p.Speak(ctx, "dos")

	want, err := p.Synthesize(ctx, "dos")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		played := pl.played()
		return len(played) > 0 && played[len(played)-1] == want
	}, time.Second, 5*time.Millisecond)

	p.Cancel()
	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("utterances did not finish after cancel")
	}
}

func TestVoices_FilteredAndCached(t *testing.T) {
	eng := &fakeEngine{voices: spanishVoices}
	p := newTestPronouncer(t, eng, nil)

	voices, err := p.Voices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 2)
	for _, v := range voices {
		assert.Contains(t, v.Language, "es-")
	}

	_, err = p.Voices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, eng.voiceCalls)
}

func TestSettings(t *testing.T) {
	per := &mapPersister{}
	eng := &fakeEngine{voices: spanishVoices}
	p := New(Options{Engine: eng, EngineName: "fake", CacheDir: t.TempDir(), Persister: per})
	ctx := context.Background()

	assert.InDelta(t, 0.8, p.Prosody().Rate, 1e-9)
	assert.InDelta(t, MaxRate, p.SetRate(ctx, 42), 1e-9)
	assert.InDelta(t, MinRate, p.SetRate(ctx, 0), 1e-9)
	assert.InDelta(t, 2.0, p.SetPitch(5), 1e-9)
	assert.InDelta(t, 0.0, p.SetVolume(-1), 1e-9)
	assert.Equal(t, "0.1", per.vals[config.KeySpeechRate])

	p.SetVoice(ctx, "es-MX-DaliaNeural")
	assert.Equal(t, "es-MX-DaliaNeural", p.Voice())
	assert.Equal(t, "es-MX-DaliaNeural", per.vals[config.KeySpeechVoice])

	_, err := p.Synthesize(ctx, "hola")
	require.NoError(t, err)
	_, voice, _ := eng.snapshot()
	assert.Equal(t, "es-MX-DaliaNeural", voice)
}

func TestNew_OptionsClamped(t *testing.T) {
	p := New(Options{Rate: 20, Pitch: 0.5, Volume: 3})
	pr := p.Prosody()
	assert.InDelta(t, MaxRate, pr.Rate, 1e-9)
	assert.InDelta(t, 0.5, pr.Pitch, 1e-9)
	assert.InDelta(t, 1.0, pr.Volume, 1e-9)
	assert.Equal(t, "es-ES", p.locale)
}
