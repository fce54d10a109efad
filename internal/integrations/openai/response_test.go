package openai

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dstrib/GPT4-Biomed-Assessment/internal/domain"
)

const wellFormedReply = `{
	"id": "chatcmpl-7Abc",
	"object": "chat.completion",
	"created": 1683000000,
	"model": "gpt-4-0314",
	"choices": [{
		"index": 0,
		"message": {"role": "assistant", "content": "\n  Glycolysis occurs in the cytosol.  \n"},
		"finish_reason": "stop"
	}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func TestExtract_WellFormed(t *testing.T) {
	rec, err := Extract(domain.RawReply(wellFormedReply))
	require.NoError(t, err)

	require.Equal(t, "Glycolysis occurs in the cytosol.", rec.Text)
	require.Equal(t, domain.FinishStop, rec.FinishReason)
	require.False(t, rec.NoResponse())
	require.Equal(t, &domain.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, rec.Usage)
	require.Equal(t, &domain.Metadata{
		Created: 1683000000,
		ID:      "chatcmpl-7Abc",
		Model:   "gpt-4-0314",
		Object:  "chat.completion",
	}, rec.Metadata)
}

func TestExtract_NoChoicesIsNoResponse(t *testing.T) {
	rec, err := Extract(domain.RawReply(`{"error":{"message":"overloaded"}}`))
	require.NoError(t, err)
	require.True(t, rec.NoResponse())
	require.Equal(t, domain.FinishNoResponse, rec.FinishReason)
	require.Empty(t, rec.Text)
	require.Nil(t, rec.Usage)
	require.Nil(t, rec.Metadata)
}

func TestExtract_LengthFinishReason(t *testing.T) {
	rec, err := Extract(domain.RawReply(`{"id":"x","object":"chat.completion","created":1,"model":"gpt-4",
		"choices":[{"message":{"role":"assistant","content":"cut"},"finish_reason":"length"}],
		"usage":{"prompt_tokens":8000,"completion_tokens":192,"total_tokens":8192}}`))
	require.NoError(t, err)
	require.Equal(t, domain.FinishLength, rec.FinishReason)
	require.Equal(t, 8192, rec.Usage.TotalTokens)
}

func TestExtract_Malformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "not json",
			raw:  `not-json`,
			want: "decode",
		},
		{
			name: "missing metadata",
			raw:  `{"choices":[{"message":{"content":"a"},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`,
			want: "reply missing created, id, model, object",
		},
		{
			name: "missing usage",
			raw:  `{"id":"x","object":"o","created":1,"model":"m","choices":[{"message":{"content":"a"},"finish_reason":"stop"}]}`,
			want: "reply missing usage",
		},
		{
			name: "partial usage",
			raw:  `{"id":"x","object":"o","created":1,"model":"m","choices":[{"message":{"content":"a"},"finish_reason":"stop"}],"usage":{"prompt_tokens":1}}`,
			want: "usage missing completion_tokens, total_tokens",
		},
		{
			name: "empty choices",
			raw:  `{"id":"x","object":"o","created":1,"model":"m","choices":[],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`,
			want: "empty choices",
		},
		{
			name: "choice without message",
			raw:  `{"id":"x","object":"o","created":1,"model":"m","choices":[{"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`,
			want: "choice missing message",
		},
		{
			name: "message without content",
			raw:  `{"id":"x","object":"o","created":1,"model":"m","choices":[{"message":{"role":"assistant"},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`,
			want: "message missing content",
		},
		{
			name: "message not an object",
			raw:  `{"id":"x","object":"o","created":1,"model":"m","choices":[{"message":"hi","finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`,
			want: "decode message",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Extract(domain.RawReply(tc.raw))
			require.ErrorIs(t, err, ErrMalformedReply)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestResponseProcessor_DelegatesToExtract(t *testing.T) {
	rec, err := ResponseProcessor{}.Extract(domain.RawReply(wellFormedReply))
	require.NoError(t, err)
	require.Equal(t, 15, rec.Usage.TotalTokens)
}
