package llmannotate

import (
	"testing"

	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
	"github.com/hubenschmidt/speakscore-engine/internal/engine"
)

func TestValidate_RejectsUnknownSpanLabel(t *testing.T) {
	ann := &engine.LLMAnnotation{
		ClarityScore: 3,
		Spans:        []engine.Span{{Text: "foo", Label: "not_a_real_label"}},
	}
	err := validate(ann)
	if err == nil {
		t.Fatal("expected validation error for unknown span label")
	}
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("expected KindValidation, got %v", apperr.KindOf(err))
	}
}

func TestValidate_RejectsOutOfRangeClarity(t *testing.T) {
	ann := &engine.LLMAnnotation{ClarityScore: 0}
	if err := validate(ann); err == nil {
		t.Error("expected validation error for clarity_score 0")
	}
	ann.ClarityScore = 6
	if err := validate(ann); err == nil {
		t.Error("expected validation error for clarity_score 6")
	}
}

func TestValidate_AcceptsWellFormedAnnotation(t *testing.T) {
	ann := &engine.LLMAnnotation{
		ClarityScore:   4,
		FlowControl:    engine.FlowControlStable,
		ListenerEffort: engine.ListenerEffortLow,
		Spans:          []engine.Span{{Text: "quite remarkable", Label: engine.LabelAdvancedVocabulary}},
	}
	if err := validate(ann); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestRequireTranscript_RejectsEmpty(t *testing.T) {
	if err := requireTranscript("   "); err == nil {
		t.Error("expected error for blank transcript")
	}
	if err := requireTranscript("hello"); err != nil {
		t.Errorf("expected no error for non-empty transcript, got %v", err)
	}
}

func TestStripCodeFence(t *testing.T) {
	in := "```json\n{\"a\":1}\n```"
	out := stripCodeFence(in)
	if out != `{"a":1}` {
		t.Errorf("expected fence stripped, got %q", out)
	}
}
