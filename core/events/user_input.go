package events

const (
	// KindAudioChunk identifies raw input audio for the streaming provider.
	KindAudioChunk Kind = "user_input.audio_frame"
	// KindImageAttached identifies image content for the active exchange.
	KindImageAttached Kind = "user_input.image_attached"
)

// AudioChunk carries a raw input audio frame (consumer to producer).
type AudioChunk struct {
	Base
	Audio []byte
}

// NewAudioChunk creates an audio chunk event.
func NewAudioChunk(audio []byte) AudioChunk {
	return AudioChunk{Base: NewBase(KindAudioChunk), Audio: audio}
}

// ImageAttached carries base64 image content for the active exchange.
type ImageAttached struct {
	Base
	Data string
}

// NewImageAttached creates an image attached event.
func NewImageAttached(data string) ImageAttached {
	return ImageAttached{Base: NewBase(KindImageAttached), Data: data}
}
