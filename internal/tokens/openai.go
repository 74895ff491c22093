// Package tokens bounds generated text by model token count.
package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Truncator caps text at a token budget using the model's BPE encoding.
type Truncator struct {
	encoding tokenizer.Encoding

	once  sync.Once
	codec tokenizer.Codec
	err   error
}

// NewTruncator creates a truncator for model.
func NewTruncator(model string) *Truncator {
	return &Truncator{encoding: modelToEncoding(model)}
}

func (t *Truncator) getCodec() (tokenizer.Codec, error) {
	t.once.Do(func() {
		t.codec, t.err = tokenizer.Get(t.encoding)
		if t.err != nil {
			t.err = fmt.Errorf("failed to get tokenizer encoding: %w", t.err)
		}
	})
	return t.codec, t.err
}

// Count returns the number of tokens in text.
func (t *Truncator) Count(text string) (int, error) {
	codec, err := t.getCodec()
	if err != nil {
		return 0, err
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, fmt.Errorf("failed to encode text: %w", err)
	}
	return len(ids), nil
}

// Truncate returns text cut to at most maxTokens tokens. A non-positive
// budget returns text unchanged.
func (t *Truncator) Truncate(text string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		return text, nil
	}
	codec, err := t.getCodec()
	if err != nil {
		return "", err
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return "", fmt.Errorf("failed to encode text: %w", err)
	}
	if len(ids) <= maxTokens {
		return text, nil
	}

	out, err := codec.Decode(ids[:maxTokens])
	if err != nil {
		return "", fmt.Errorf("failed to decode tokens: %w", err)
	}
	// A cut inside a multi-byte rune decodes to U+FFFD.
	return strings.TrimRight(strings.ToValidUTF8(out, ""), "�"), nil
}

// modelToEncoding maps model names to encodings.
//
// Encoding reference:
// - O200kBase: GPT-5, GPT-4.1, GPT-4o, O1, O3, O4-mini and newer models
// - Cl100kBase: GPT-4, GPT-3.5-turbo
// - default: O200kBase for unknown or non-OpenAI models
func modelToEncoding(model string) tokenizer.Encoding {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "gpt-5"),
		strings.HasPrefix(model, "gpt-4.1"), strings.HasPrefix(model, "gpt-41"),
		strings.HasPrefix(model, "gpt-4o"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"), strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.O200kBase
	}
}
