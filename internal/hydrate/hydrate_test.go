package hydrate

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

type region struct {
	Page int     `json:"page"`
	X    float64 `json:"x"`
}

type proposal struct {
	ID      string   `json:"id"`
	Regions []region `json:"regions"`
}

type batch struct {
	Questions []proposal `json:"questions"`
}

func TestDecodeAppliesHooksInOrder(t *testing.T) {
	var order []string
	decoder := NewDecoder[batch](
		WithPreHook[batch](func(ctx Context, payload map[string]any) (map[string]any, error) {
			order = append(order, "pre")
			questions := payload["questions"].([]any)
			first := questions[0].(map[string]any)
			first["id"] = "06"
			return payload, nil
		}),
		WithPostHook[batch](func(ctx Context, out *batch) error {
			order = append(order, "post")
			out.Questions[0].Regions[0].Page = ctx.Page
			return nil
		}),
	)

	payload := map[string]any{
		"questions": []any{
			map[string]any{"id": "6", "regions": []any{map[string]any{"x": 10.5}}},
		},
	}
	got, err := decoder.Decode(Context{Source: "ai", Page: 4}, payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := batch{Questions: []proposal{{ID: "06", Regions: []region{{Page: 4, X: 10.5}}}}}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("decoded mismatch:\nwant: %#v\n got: %#v", want, got)
	}
	if strings.Join(order, ",") != "pre,post" {
		t.Fatalf("unexpected hook order %v", order)
	}
	first := payload["questions"].([]any)[0].(map[string]any)
	if first["id"] != "6" {
		t.Fatalf("expected caller payload untouched, got %v", first["id"])
	}
}

func TestDecodeNilPayload(t *testing.T) {
	_, err := NewDecoder[batch]().Decode(Context{Page: 2}, nil)
	if err == nil || !strings.Contains(err.Error(), "payload is nil for page 2") {
		t.Fatalf("expected nil payload error, got %v", err)
	}
}

func TestDecodeHookErrorsAreWrapped(t *testing.T) {
	boom := errors.New("boom")
	pre := NewDecoder[batch](WithPreHook[batch](func(Context, map[string]any) (map[string]any, error) {
		return nil, boom
	}))
	if _, err := pre.Decode(Context{Source: "ai", Page: 1}, map[string]any{}); !errors.Is(err, boom) || !strings.Contains(err.Error(), "pre-hook for ai page 1") {
		t.Fatalf("expected wrapped pre-hook error, got %v", err)
	}

	post := NewDecoder[batch](WithPostHook[batch](func(Context, *batch) error { return boom }))
	if _, err := post.Decode(Context{Page: 1}, map[string]any{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped post-hook error, got %v", err)
	}
}

func TestDecodeDisallowUnknownFields(t *testing.T) {
	decoder := NewDecoder[batch](WithDisallowUnknownFields[batch]())
	_, err := decoder.Decode(Context{Page: 1}, map[string]any{"questions": []any{}, "extra": true})
	if err == nil || !strings.Contains(err.Error(), "decode page 1") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}
