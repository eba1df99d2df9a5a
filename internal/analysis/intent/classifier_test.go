package intent

import (
	"reflect"
	"testing"
)

func hasTag(r Result, tag Tag) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func TestClassifyPricing(t *testing.T) {
	result := Classify("What's the price?")
	if !hasTag(result, Pricing) {
		t.Fatalf("expected pricing tag, got %v", result.Tags)
	}
	if !result.SalesMode {
		t.Fatal("expected sales mode")
	}
}

func TestClassifyBookPrivateRoom(t *testing.T) {
	result := Classify("Can I book a private room?")
	if !hasTag(result, Availability) || !hasTag(result, Room) {
		t.Fatalf("expected availability and room tags, got %v", result.Tags)
	}
	if hasTag(result, Pricing) {
		t.Fatalf("did not expect pricing tag, got %v", result.Tags)
	}
}

func TestClassifyGreetingHasNoTags(t *testing.T) {
	result := Classify("Hello")
	if len(result.Tags) != 0 {
		t.Fatalf("expected no tags, got %v", result.Tags)
	}
	if result.SalesMode {
		t.Fatal("expected sales mode off")
	}
}

func TestClassifyKeywordEdges(t *testing.T) {
	cases := []struct {
		text string
		want []Tag
	}{
		{text: "Is it EXPENSIVE?", want: []Tag{Pricing}},
		{text: "Does the bedroom have a view", want: []Tag{Room}},
		{text: "Anything available to reserve in a dorm? what's the cost", want: []Tag{Pricing, Availability, Room}},
		{text: "Do you have a bookshelf", want: []Tag{Availability}},
		{text: "   ", want: nil},
	}

	for _, tc := range cases {
		got := Classify(tc.text)
		if !reflect.DeepEqual(got.Tags, tc.want) {
			t.Fatalf("Classify(%q) tags = %v, want %v", tc.text, got.Tags, tc.want)
		}
		if got.SalesMode != (len(tc.want) > 0) {
			t.Fatalf("Classify(%q) sales mode = %v", tc.text, got.SalesMode)
		}
	}
}
