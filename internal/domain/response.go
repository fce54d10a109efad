package domain

// FinishReason is the reason the model stopped generating.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
	// FinishNoResponse marks a reply that carried no choices at all.
	FinishNoResponse FinishReason = "No_Response"
)

// Usage holds the token counters reported for one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Metadata identifies the completion that produced a reply.
type Metadata struct {
	Created int64
	ID      string
	Model   string
	Object  string
}

// ResponseRecord is the normalized result of one chat completion. Usage and
// Metadata are nil for a No_Response record.
type ResponseRecord struct {
	Text         string
	FinishReason FinishReason
	Usage        *Usage
	Metadata     *Metadata
}

// NoResponse reports whether the reply lacked any choices.
func (r ResponseRecord) NoResponse() bool {
	return r.FinishReason == FinishNoResponse
}

// RawReply is the undecoded body returned by the chat endpoint.
type RawReply []byte
