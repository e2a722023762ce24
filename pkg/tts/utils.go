package tts

import (
	"fmt"
	"os"
	"strings"
)

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes text for use inside SSML.
func EscapeXML(text string) string {
	return xmlReplacer.Replace(text)
}

// BuildSSML wraps text in a speak/voice/prosody envelope.
func BuildSSML(lang, voice, text string, p Prosody) string {
	return fmt.Sprintf(
		"<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='%s'><voice name='%s'><prosody rate='%s' pitch='%s' volume='%s'>%s</prosody></voice></speak>",
		EscapeXML(lang), EscapeXML(voice),
		RelativePercent(p.Rate), RelativePercent(p.Pitch), RelativePercent(p.Volume),
		EscapeXML(text),
	)
}

// LanguageOf returns the locale prefix of a neural voice ID: "es-ES-ElviraNeural" -> "es-ES".
func LanguageOf(voiceID string) string {
	parts := strings.SplitN(voiceID, "-", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[0] + "-" + parts[1]
}

// VerifyAudioFile checks that a synthesized file exists and is plausibly complete.
func VerifyAudioFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("audio file missing: %w", err)
	}
	if info.Size() < MinAudioSize {
		return fmt.Errorf("audio file too small (%d bytes)", info.Size())
	}
	return nil
}
