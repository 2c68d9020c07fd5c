package chat

import "testing"

func TestIsCasualGreetings(t *testing.T) {
	t.Parallel()
	cases := []string{
		"Merhaba",
		"selam!",
		"Günaydın, nasılsınız?",
		"iyi günler dilerim",
		"teşekkür ederim",
		"Sağol",
		"görüşürüz",
		"hey",
		"Hello there",
	}
	for _, text := range cases {
		if !IsCasual(text) {
			t.Fatalf("expected casual: %q", text)
		}
	}
}

func TestIsCasualDomainQuestions(t *testing.T) {
	t.Parallel()
	cases := []string{
		"Yatırım teşvik belgesi nasıl alınır?",
		"HIT-30 programına kimler başvurabilir?",
		"Asgari yatırım tutarı nedir",
		"KDV istisnası hangi harcamaları kapsar?",
	}
	for _, text := range cases {
		if IsCasual(text) {
			t.Fatalf("expected not casual: %q", text)
		}
	}
}

func TestShortKeywordsNeedWholeWord(t *testing.T) {
	t.Parallel()
	// "hi" must not fire inside Turkish words
	if IsCasual("binanın tarihi dokusu korunacak mı") {
		t.Fatalf("substring of a longer word should not classify as casual")
	}
	if !IsCasual("hi, bir sorum var") {
		t.Fatalf("standalone short keyword should classify as casual")
	}
}

func TestFoldTurkish(t *testing.T) {
	t.Parallel()
	if got := foldTurkish("BAŞVURU Süreci IĞDıR"); got != "basvuru sureci igdir" {
		t.Fatalf("unexpected fold result: %q", got)
	}
}
