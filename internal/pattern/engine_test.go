package pattern

import (
	"regexp"
	"testing"

	"github.com/aaronsb/playtimed/internal/domain"
)

func mustCompile(t *testing.T, p domain.Pattern) compiled {
	t.Helper()
	re, err := regexp.Compile(p.PatternRegex)
	if err != nil {
		t.Fatalf("compile %q: %v", p.PatternRegex, err)
	}
	return compiled{pattern: p, re: re}
}

func TestEngineClassify_UserSpecificBeatsGlobal(t *testing.T) {
	e := New(nil)
	globalPattern := domain.Pattern{ID: 1, PatternRegex: `^steam$`, Category: domain.CategoryGaming}
	userPattern := domain.Pattern{ID: 2, PatternRegex: `^steam$`, Category: domain.CategoryIgnored, Owner: "alice"}

	e.global = []compiled{mustCompile(t, globalPattern)}
	e.byOwner = map[string][]compiled{"alice": {mustCompile(t, userPattern)}}

	p, category, matched := e.Classify("alice", domain.DetectedActivity{Key: "steam"})
	if !matched {
		t.Fatal("expected a match")
	}
	if category != domain.CategoryIgnored {
		t.Errorf("expected user-scoped pattern to win, got category %s", category)
	}
	if p.ID != 2 {
		t.Errorf("expected pattern id 2, got %d", p.ID)
	}

	p, category, matched = e.Classify("bob", domain.DetectedActivity{Key: "steam"})
	if !matched || category != domain.CategoryGaming || p.ID != 1 {
		t.Errorf("expected bob to fall through to the global pattern, got %+v %s %v", p, category, matched)
	}
}

func TestEngineClassify_NoMatch(t *testing.T) {
	e := New(nil)
	e.global = []compiled{mustCompile(t, domain.Pattern{ID: 1, PatternRegex: `^steam$`, Category: domain.CategoryGaming})}

	_, _, matched := e.Classify("anyone", domain.DetectedActivity{Key: "notepad.exe"})
	if matched {
		t.Error("expected no match for an unrelated key")
	}
}

func TestEngineClassify_FirstMatchInSliceOrderWins(t *testing.T) {
	e := New(nil)
	narrow := domain.Pattern{ID: 2, PatternRegex: `youtube\.com`, Category: domain.CategoryEducational, Priority: 0}
	broad := domain.Pattern{ID: 1, PatternRegex: `.*chrome.*`, Category: domain.CategoryIgnored, Priority: 10}
	e.global = []compiled{mustCompile(t, narrow), mustCompile(t, broad)}

	_, category, matched := e.Classify("alice", domain.DetectedActivity{Key: "youtube.com via chrome"})
	if !matched {
		t.Fatal("expected a match")
	}
	if category != domain.CategoryEducational {
		t.Errorf("expected the first slice entry to be checked before later ones, got %s", category)
	}
}
