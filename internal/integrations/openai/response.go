package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	gogpt "github.com/sashabaranov/go-openai"

	"github.com/dstrib/GPT4-Biomed-Assessment/internal/domain"
)

// ErrMalformedReply means the reply broke the chat-completion contract.
var ErrMalformedReply = errors.New("openai: malformed reply")

var (
	replyKeys   = []string{"created", "id", "model", "object", "usage"}
	choiceKeys  = []string{"message", "finish_reason"}
	usageKeys   = []string{"prompt_tokens", "completion_tokens", "total_tokens"}
	messageKeys = []string{"content"}
)

// ResponseProcessor turns raw replies into response records.
type ResponseProcessor struct{}

func (ResponseProcessor) Extract(raw domain.RawReply) (domain.ResponseRecord, error) {
	return Extract(raw)
}

// Extract normalizes a raw chat-completion reply. A reply without a "choices"
// field yields a No_Response record and no error; any other missing field is
// ErrMalformedReply.
func Extract(raw domain.RawReply) (domain.ResponseRecord, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.ResponseRecord{}, fmt.Errorf("%w: decode: %v", ErrMalformedReply, err)
	}
	if _, ok := fields["choices"]; !ok {
		return domain.ResponseRecord{FinishReason: domain.FinishNoResponse}, nil
	}
	if err := requireKeys("reply", fields, replyKeys); err != nil {
		return domain.ResponseRecord{}, err
	}

	var usage map[string]json.RawMessage
	if err := json.Unmarshal(fields["usage"], &usage); err != nil {
		return domain.ResponseRecord{}, fmt.Errorf("%w: decode usage: %v", ErrMalformedReply, err)
	}
	if err := requireKeys("usage", usage, usageKeys); err != nil {
		return domain.ResponseRecord{}, err
	}

	var choices []map[string]json.RawMessage
	if err := json.Unmarshal(fields["choices"], &choices); err != nil {
		return domain.ResponseRecord{}, fmt.Errorf("%w: decode choices: %v", ErrMalformedReply, err)
	}
	if len(choices) == 0 {
		return domain.ResponseRecord{}, fmt.Errorf("%w: empty choices", ErrMalformedReply)
	}
	if err := requireKeys("choice", choices[0], choiceKeys); err != nil {
		return domain.ResponseRecord{}, err
	}
	var message map[string]json.RawMessage
	if err := json.Unmarshal(choices[0]["message"], &message); err != nil {
		return domain.ResponseRecord{}, fmt.Errorf("%w: decode message: %v", ErrMalformedReply, err)
	}
	if err := requireKeys("message", message, messageKeys); err != nil {
		return domain.ResponseRecord{}, err
	}

	var resp gogpt.ChatCompletionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.ResponseRecord{}, fmt.Errorf("%w: decode: %v", ErrMalformedReply, err)
	}
	choice := resp.Choices[0]

	return domain.ResponseRecord{
		Text:         strings.TrimSpace(choice.Message.Content),
		FinishReason: domain.FinishReason(choice.FinishReason),
		Usage: &domain.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Metadata: &domain.Metadata{
			Created: resp.Created,
			ID:      resp.ID,
			Model:   resp.Model,
			Object:  resp.Object,
		},
	}, nil
}

func requireKeys(scope string, fields map[string]json.RawMessage, keys []string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s missing %s", ErrMalformedReply, scope, strings.Join(missing, ", "))
}
