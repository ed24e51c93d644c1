package relevance

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/rubiojr/basket/pkg/config"
	"github.com/rubiojr/basket/pkg/core"
	"github.com/rubiojr/basket/pkg/log"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"
)

// fakeModel replies with a canned string and records the prompts it got.
type fakeModel struct {
	reply   string
	err     error
	prompts []string
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

var products = []core.ProductRecord{
	{Name: "Amul Taaza Toned Milk", Weight: "500 ml", Price: "₹27", Availability: "Available", Platform: "Zepto"},
	{Name: "Milk Bikis", Weight: "200 g", Price: "₹30", Availability: "Available", Platform: "BigBasket"},
}

func TestFilterKeepsModelSelection(t *testing.T) {
	model := &fakeModel{reply: "Here you go:\n```json\n{\"matches\": [{\"name\": \"Amul Taaza Toned Milk\", \"weight\": \"500 ml\", \"price\": \"₹27\", \"availability\": \"Available\", \"platform\": \"Zepto\"}]}\n```"}

	got := NewLLMFilter(model).Filter(context.Background(), products, core.Query{Text: "milk"})
	if len(got) != 1 || got[0].Name != "Amul Taaza Toned Milk" || got[0].Price != "₹27" {
		t.Fatalf("unexpected result %+v", got)
	}
	if len(model.prompts) != 1 {
		t.Fatalf("expected exactly one model call, got %d", len(model.prompts))
	}
	if !strings.Contains(model.prompts[0], `search query "milk"`) || !strings.Contains(model.prompts[0], "Milk Bikis") {
		t.Errorf("prompt missing query or products:\n%s", model.prompts[0])
	}
}

func TestFilterIgnoresBracketsInTrailingProse(t *testing.T) {
	model := &fakeModel{reply: `{"matches": [{"name": "Amul Taaza Toned Milk", "price": "₹27"}]} (dropped "Milk Bikis" [biscuits, not milk])`}

	got := NewLLMFilter(model).Filter(context.Background(), products, core.Query{Text: "milk"})
	if len(got) != 1 || got[0].Name != "Amul Taaza Toned Milk" {
		t.Fatalf("selection lost to trailing prose: %+v", got)
	}
}

func TestFilterFailsOpen(t *testing.T) {
	tests := map[string]*fakeModel{
		"non-JSON reply":  {reply: "I could not decide."},
		"model error":     {err: errors.New("429 too many requests")},
		"missing matches": {reply: `{"results": []}`},
		"broken JSON":     {reply: `{"matches": [{"name": }`},
	}

	for name, model := range tests {
		t.Run(name, func(t *testing.T) {
			got := NewLLMFilter(model).Filter(context.Background(), products, core.Query{Text: "milk"})
			if len(got) != len(products) || got[0] != products[0] || got[1] != products[1] {
				t.Errorf("expected input unchanged, got %+v", got)
			}
		})
	}
}

func TestFilterEmptyInputMakesNoCall(t *testing.T) {
	model := &fakeModel{reply: "[]"}
	got := NewLLMFilter(model).Filter(context.Background(), []core.ProductRecord{}, core.Query{Text: "milk"})
	if len(got) != 0 || len(model.prompts) != 0 {
		t.Errorf("expected no call, got %d prompts", len(model.prompts))
	}
}

func TestFilterLimiterCancelled(t *testing.T) {
	model := &fakeModel{reply: "[]"}
	limiter := rate.NewLimiter(rate.Limit(0.0001), 1)
	limiter.Allow() // drain the burst

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := NewLLMFilter(model, WithLimiter(limiter)).Filter(ctx, products, core.Query{Text: "milk"})
	if len(got) != 2 || len(model.prompts) != 0 {
		t.Errorf("limiter failure should fail open without calling the model")
	}
}

func TestExtractMatches(t *testing.T) {
	tests := []struct {
		reply   string
		want    int
		wantErr error
	}{
		{`[{"name":"a"},{"name":"b"}]`, 2, nil},
		{`Sure! {"matches": []} Hope that helps.`, 0, nil},
		{`{"matches": [{"name":"x","nested":{"k":"v"}}]}`, 1, nil},
		{`no json here`, 0, ErrNoJSON},
		{`{"other": 1}`, 0, ErrNoMatches},
		{`{ unterminated`, 0, ErrNoJSON},
		{`Sure {"matches": [{"name":"a"}]} (see {note})`, 1, nil},
		{"```json\n[{\"name\":\"a\"}]\n```\nDropped [2] unrelated items.", 1, nil},
	}

	for _, tt := range tests {
		got, err := ExtractMatches(tt.reply)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ExtractMatches(%q) err = %v, want %v", tt.reply, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Errorf("ExtractMatches(%q): %v", tt.reply, err)
			continue
		}
		if got == nil || len(got) != tt.want {
			t.Errorf("ExtractMatches(%q) = %d records, want %d", tt.reply, len(got), tt.want)
		}
	}
}

func TestPassthrough(t *testing.T) {
	got := Passthrough{}.Filter(context.Background(), products, core.Query{Text: "anything"})
	if len(got) != 2 {
		t.Errorf("Passthrough changed the records")
	}
}

func TestFromConfigWarnsWhenDisabled(t *testing.T) {
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	if _, err := FromConfig(config.RelevanceConfig{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "WARN [relevance>] relevance filtering disabled") {
		t.Errorf("expected a warning about disabled filtering, got %q", buf.String())
	}
}

func TestFromConfig(t *testing.T) {
	f, err := FromConfig(config.RelevanceConfig{Enabled: false})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := f.(Passthrough); !ok {
		t.Errorf("disabled filter should be Passthrough, got %T", f)
	}

	t.Setenv("OPENAI_API_KEY", "")
	if _, err := FromConfig(config.RelevanceConfig{Enabled: true}); err == nil {
		t.Error("expected error without api key")
	}

	f, err = FromConfig(config.RelevanceConfig{Enabled: true, APIKey: "sk-test", Model: "gpt-4", RequestsPerMinute: 10})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if _, ok := f.(*LLMFilter); !ok {
		t.Errorf("expected LLMFilter, got %T", f)
	}
}
