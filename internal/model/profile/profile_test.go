package profile

import "testing"

func TestSeedContact(t *testing.T) {
	contact := Seed().Contact()
	if contact.Email != "huynhducanh.ai@gmail.com" {
		t.Fatalf("unexpected email: %s", contact.Email)
	}
	if contact.LinkedIn != "https://linkedin.com/in/huynhducanh" {
		t.Fatalf("unexpected linkedin: %s", contact.LinkedIn)
	}
}

func TestFallbackSuggestionsIsFixedFiveItemList(t *testing.T) {
	first := FallbackSuggestions()
	if len(first) != 5 {
		t.Fatalf("expected 5 suggestions, got %d", len(first))
	}

	// callers may mutate their copy
	first[0] = "changed"
	if FallbackSuggestions()[0] != "Tell me about your AI projects" {
		t.Fatal("fallback suggestions must not share backing storage")
	}
}

func TestSeedSkillGroupsPresent(t *testing.T) {
	p := Seed()
	for _, group := range p.SkillGroups() {
		if len(p.Skills[group]) == 0 {
			t.Fatalf("skill group %s is empty", group)
		}
	}
}
