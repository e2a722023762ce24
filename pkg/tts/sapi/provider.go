package sapi

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"

	"hablago/pkg/tts"
)

// SpeechVoiceSpeakFlags
const (
	svsfDefault = 0
	svsfIsXML   = 8
)

// Provider implements tts.Provider using Windows SAPI5 via OLE.
type Provider struct {
	mu sync.Mutex
}

// NewProvider creates a new SAPI5 provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Synthesize generates a .wav file using SAPI5.
func (p *Provider) Synthesize(ctx context.Context, text, voiceID string, prosody tts.Prosody, outputPath string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ole.CoInitialize(0); err == nil {
		defer ole.CoUninitialize()
	}

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return "", fmt.Errorf("failed to create SAPI.SpVoice: %w", err)
	}
	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return "", fmt.Errorf("QueryInterface SpVoice failed: %w", err)
	}
	defer voice.Release()

	if voiceID != "" {
		p.setVoiceByID(voice, voiceID)
	}
	_, _ = oleutil.PutProperty(voice, "Rate", sapiRate(prosody.Rate))
	_, _ = oleutil.PutProperty(voice, "Volume", sapiVolume(prosody.Volume))

	unknownStream, err := oleutil.CreateObject("SAPI.SpFileStream")
	if err != nil {
		return "", fmt.Errorf("failed to create SAPI.SpFileStream: %w", err)
	}
	stream, err := unknownStream.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknownStream.Release()
		return "", fmt.Errorf("QueryInterface SpFileStream failed: %w", err)
	}
	defer stream.Release()

	fullPath := outputPath
	if !strings.HasSuffix(strings.ToLower(fullPath), ".wav") {
		fullPath += ".wav"
	}
	// 3 = SSFMCreateForWrite
	if _, err = oleutil.CallMethod(stream, "Open", fullPath, 3, false); err != nil {
		return "", fmt.Errorf("stream Open failed: %w", err)
	}
	defer func() {
		_, _ = oleutil.CallMethod(stream, "Close")
	}()

	if _, err = oleutil.PutPropertyRef(voice, "AudioOutputStream", stream); err != nil {
		return "", fmt.Errorf("failed to set AudioOutputStream: %w", err)
	}

	markup, flags := speakMarkup(text, prosody.Pitch)
	if _, err = oleutil.CallMethod(voice, "Speak", markup, flags); err != nil {
		tts.Log("SAPI", markup, 0, err)
		return "", fmt.Errorf("Speak failed: %w", err)
	}

	tts.Log("SAPI", markup, 200, nil)
	return "wav", nil
}

// sapiRate maps a speed multiplier onto SAPI's -10..10 scale, where 10 is about 3x.
func sapiRate(r float64) int {
	if r <= 0 {
		return 0
	}
	v := math.Round(10 * math.Log(r) / math.Log(3))
	return int(math.Max(-10, math.Min(10, v)))
}

// sapiVolume maps a 0..1 multiplier onto SAPI's 0..100 volume.
func sapiVolume(v float64) int {
	return int(math.Max(0, math.Min(100, math.Round(v*100))))
}

// speakMarkup wraps text in a SAPI pitch element when pitch differs from 1.
func speakMarkup(text string, pitch float64) (string, int) {
	if pitch <= 0 || pitch == 1 {
		return text, svsfDefault
	}
	steps := int(math.Max(-10, math.Min(10, math.Round(10*math.Log2(pitch)))))
	return fmt.Sprintf(`<pitch absmiddle="%d">%s</pitch>`, steps, tts.EscapeXML(text)), svsfIsXML
}

// Voices lists installed SAPI voices.
func (p *Provider) Voices(ctx context.Context) ([]tts.Voice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ole.CoInitialize(0); err == nil {
		defer ole.CoUninitialize()
	}

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return nil, err
	}
	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return nil, err
	}
	defer voice.Release()

	tokensVar, err := oleutil.CallMethod(voice, "GetVoices")
	if err != nil {
		tokensVar, err = oleutil.GetProperty(voice, "Voices")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voices collection: %w", err)
	}
	tokens := tokensVar.ToIDispatch()
	if tokens == nil {
		return nil, fmt.Errorf("voices collection is nil")
	}
	defer tokens.Release()

	var voices []tts.Voice
	_ = oleutil.ForEach(tokens, func(v *ole.VARIANT) error {
		if voice, ok := extractVoice(v); ok {
			voices = append(voices, voice)
		}
		return nil
	})
	return voices, nil
}

func getVariantInt(v *ole.VARIANT) int {
	switch it := v.Value().(type) {
	case int32:
		return int(it)
	case int64:
		return int(it)
	case int:
		return it
	case uint32:
		return int(it)
	default:
		return int(v.Val)
	}
}

func extractVoice(v *ole.VARIANT) (tts.Voice, bool) {
	item := v.ToIDispatch()
	if item == nil {
		return tts.Voice{}, false
	}
	defer item.Release()

	idVar, idErr := oleutil.CallMethod(item, "GetId")
	descVar, descErr := oleutil.CallMethod(item, "GetDescription", int32(0))
	if idErr != nil || descErr != nil || idVar == nil || descVar == nil {
		return tts.Voice{}, false
	}

	lang := ""
	if langVar, err := oleutil.CallMethod(item, "GetAttribute", "Language"); err == nil && langVar != nil {
		lang = lcidToTag(langVar.ToString())
	}
	return tts.Voice{
		ID:       idVar.ToString(),
		Name:     descVar.ToString(),
		Language: lang,
	}, true
}

var lcidTags = map[int64]string{
	0x040a: "es-ES",
	0x0c0a: "es-ES",
	0x080a: "es-MX",
	0x2c0a: "es-AR",
	0x240a: "es-CO",
	0x540a: "es-US",
	0x0409: "en-US",
	0x0809: "en-GB",
	0x0804: "zh-CN",
	0x0404: "zh-TW",
}

// lcidToTag converts a SAPI Language attribute such as "c0a" or "409;9" to a BCP 47 tag.
func lcidToTag(attr string) string {
	first := strings.TrimSpace(strings.SplitN(attr, ";", 2)[0])
	lcid, err := strconv.ParseInt(first, 16, 32)
	if err != nil {
		return ""
	}
	return lcidTags[lcid]
}

func (p *Provider) setVoiceByID(voice *ole.IDispatch, voiceID string) {
	tokensVar, err := oleutil.CallMethod(voice, "GetVoices", "", "")
	if err != nil {
		return
	}
	tokens := tokensVar.ToIDispatch()
	if tokens == nil {
		return
	}
	defer tokens.Release()

	_ = oleutil.ForEach(tokens, func(v *ole.VARIANT) error {
		item := v.ToIDispatch()
		if item == nil {
			return nil
		}
		defer item.Release()
		idVar, _ := oleutil.CallMethod(item, "GetId")
		if idVar != nil && idVar.ToString() == voiceID {
			_, _ = oleutil.PutPropertyRef(voice, "Voice", item)
		}
		return nil
	})
}
