package gemini

// Wire shapes for the live websocket protocol. Only the fields this
// adapter reads or writes are declared.

type clientMessage struct {
	Setup         *setupPayload         `json:"setup,omitempty"`
	ClientContent *clientContentPayload `json:"clientContent,omitempty"`
	RealtimeInput *realtimeInputPayload `json:"realtimeInput,omitempty"`
}

type setupPayload struct {
	Model                   string            `json:"model"`
	GenerationConfig        *generationConfig `json:"generationConfig,omitempty"`
	SystemInstruction       *content          `json:"systemInstruction,omitempty"`
	Tools                   []tool            `json:"tools,omitempty"`
	InputAudioTranscription *struct{}         `json:"inputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type tool struct {
	GoogleSearch *struct{} `json:"googleSearch,omitempty"`
}

type clientContentPayload struct {
	Turns        []content `json:"turns,omitempty"`
	TurnComplete bool      `json:"turnComplete"`
}

type realtimeInputPayload struct {
	MediaChunks []mediaChunk `json:"mediaChunks,omitempty"`
}

type mediaChunk struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts,omitempty"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type serverMessage struct {
	SetupComplete *struct{}             `json:"setupComplete,omitempty"`
	ServerContent *serverContentPayload `json:"serverContent,omitempty"`
}

type serverContentPayload struct {
	ModelTurn          *content        `json:"modelTurn,omitempty"`
	InputTranscription *transcription  `json:"inputTranscription,omitempty"`
	TurnComplete       bool            `json:"turnComplete,omitempty"`
	GenerationComplete bool            `json:"generationComplete,omitempty"`
	Interrupted        bool            `json:"interrupted,omitempty"`
}

type transcription struct {
	Text string `json:"text"`
}
