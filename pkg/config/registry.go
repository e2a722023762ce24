package config

// Persistent state keys (Registry)
const (
	KeyVisitorCount = "visitor_count"
	KeySpeechRate   = "speech_rate"
	KeySpeechVoice  = "speech_voice"
)
