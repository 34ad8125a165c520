package recipe

import "testing"

func TestNormalize_StripsJSONFence(t *testing.T) {
	raw := "```json\n{\"recipes\": []}\n```"
	got := Normalize(raw)
	want := `{"recipes": []}`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalize_TrimsSurroundingWhitespace(t *testing.T) {
	raw := "  \n\t{\"recipes\": []}\n  "
	got := Normalize(raw)
	want := `{"recipes": []}`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalize_LeavesBareJSONUntouched(t *testing.T) {
	raw := `{"recipes": []}`
	if got := Normalize(raw); got != raw {
		t.Errorf("expected %q, got %q", raw, got)
	}
}

func TestNormalize_PrefixOnlyFence(t *testing.T) {
	raw := "```json\n{\"recipes\": []}"
	got := Normalize(raw)
	want := `{"recipes": []}`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalize_SuffixOnlyFence(t *testing.T) {
	raw := "{\"recipes\": []}\n```"
	got := Normalize(raw)
	want := `{"recipes": []}`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"```json\n{\"recipes\": []}\n```",
		"```json```json{\"recipes\": []}``````",
		"   {\"a\": 1}   ",
		"",
		"plain text",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
