package conversation

import (
	"math/rand"
	"testing"
)

func TestSelectNextHonorsNomination(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	roster := []string{"Alex", "Sam", "Jordan"}

	choice := &SpeakerChoice{NextSpeaker: "Sam", Reason: "Sam raised the point"}
	sel := SelectNext(choice, roster, "Alex", false, rng)
	if sel.Speaker != "Sam" {
		t.Fatalf("speaker = %q, want Sam", sel.Speaker)
	}
	if sel.Reason != "Sam raised the point" {
		t.Fatalf("reason = %q, want the nomination reason", sel.Reason)
	}
}

func TestSelectNextHonorsHumanNomination(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sel := SelectNext(&SpeakerChoice{NextSpeaker: HumanSpeaker}, []string{"Alex", "Sam"}, "Alex", false, rng)
	if sel.Speaker != HumanSpeaker {
		t.Fatalf("speaker = %q, want %s", sel.Speaker, HumanSpeaker)
	}
}

func TestSelectNextRejectsUnknownNomination(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	roster := []string{"Alex", "Sam"}

	for i := 0; i < 50; i++ {
		sel := SelectNext(&SpeakerChoice{NextSpeaker: "Nobody"}, roster, "Alex", false, rng)
		if sel.Speaker == "Nobody" {
			t.Fatal("unknown nomination must not be honored")
		}
		if sel.Speaker == "Alex" {
			t.Fatal("fallback must exclude the previous speaker")
		}
	}
}

func TestSelectNextNeverPicksHumanAfterHuman(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	roster := []string{"Alex", "Sam", "Jordan"}

	for i := 0; i < 200; i++ {
		sel := SelectNext(nil, roster, HumanSpeaker, true, rng)
		if sel.Speaker == HumanSpeaker {
			t.Fatal("human must never immediately follow a human turn")
		}
		if sel.Reason != "random persona after human turn" {
			t.Fatalf("reason = %q", sel.Reason)
		}
	}
}

func TestSelectNextIgnoresNominationAfterHuman(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	// A stale nomination from before the human turn carries no weight.
	sel := SelectNext(&SpeakerChoice{NextSpeaker: HumanSpeaker}, []string{"Alex", "Sam"}, HumanSpeaker, true, rng)
	if sel.Speaker == HumanSpeaker {
		t.Fatal("nomination after human turn must be ignored")
	}
}

func TestSelectNextFallbackExcludesPrevious(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	roster := []string{"Alex", "Sam", "Jordan"}

	seen := map[string]bool{}
	for i := 0; i < 300; i++ {
		sel := SelectNext(nil, roster, "Sam", false, rng)
		if sel.Speaker == "Sam" {
			t.Fatal("previous speaker must not repeat")
		}
		seen[sel.Speaker] = true
	}
	for _, want := range []string{"Alex", "Jordan", HumanSpeaker} {
		if !seen[want] {
			t.Fatalf("candidate %s never selected across 300 draws", want)
		}
	}
}

func TestSelectNextSinglePersonaRoster(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	// Only one persona and the human just spoke: the persona continues.
	sel := SelectNext(nil, []string{"Alex"}, HumanSpeaker, true, rng)
	if sel.Speaker != "Alex" {
		t.Fatalf("speaker = %q, want Alex", sel.Speaker)
	}
}
