package conversation

import "math/rand"

// Selection is the resolved next-speaker decision.
type Selection struct {
	Speaker string
	Reason  string
}

// SelectNext decides who speaks next. An explicit nomination is honored when
// it names a member of the roster (or the human) and the previous turn was
// not a human turn. Otherwise the speaker is chosen uniformly at random among
// the eligible participants, excluding the previous speaker. After a human
// turn the human is never eligible, so two human turns can never be adjacent.
func SelectNext(choice *SpeakerChoice, roster []string, previous string, afterHuman bool, rng *rand.Rand) Selection {
	if !afterHuman && choice != nil && isAllowed(choice.NextSpeaker, roster) {
		return Selection{Speaker: choice.NextSpeaker, Reason: choice.Reason}
	}

	var candidates []string
	for _, name := range roster {
		if name != previous {
			candidates = append(candidates, name)
		}
	}
	if !afterHuman && previous != HumanSpeaker {
		candidates = append(candidates, HumanSpeaker)
	}
	if len(candidates) == 0 {
		// Single-persona roster right after its own turn; let it continue.
		candidates = roster
	}

	reason := "random selection (no choice made)"
	if afterHuman {
		reason = "random persona after human turn"
	}
	return Selection{Speaker: candidates[rng.Intn(len(candidates))], Reason: reason}
}

func isAllowed(name string, roster []string) bool {
	if name == HumanSpeaker {
		return true
	}
	for _, r := range roster {
		if r == name {
			return true
		}
	}
	return false
}
