package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/tesvikportal/asistan/provider"
)

// Fixed user-facing strings. The answer pipeline never invents these; they
// are appended or returned verbatim.
const (
	// NoInformationAnswer is returned when the matcher finds nothing above
	// threshold. It short-circuits generation entirely.
	NoInformationAnswer = "Üzgünüm, bu konu hakkında elimde bilgi bulunmuyor. Yatırım teşvikleri ile ilgili başka bir soru sormak ister misiniz?"

	// badgeInfoSentence and the badge tags below are appended at most once
	// per answer by ApplyBadge.
	badgeInfoSentence = "Başvuru süreçleri ve size özel destek imkânları hakkında detaylı bilgi için uzman ekibimizle iletişime geçebilirsiniz."

	BadgeContact       = "[badge:iletisim|/iletisim]"
	BadgeYerelKalkinma = "[badge:yerel-kalkinma|/iletisim]"
	BadgeHIT30         = "[badge:hit-30|/iletisim]"
)

// Trigger keywords for the contact suffix, compared after diacritic folding.
var badgeTriggerKeywords = []string{"basvuru", "tesvik", "destek", "yatirim"}

// Program keyword sets deciding which badge tag is appended. Checked in
// order; first hit wins.
var (
	yerelKalkinmaKeywords = []string{"yerel kalkinma", "yerel kalkinma hamlesi"}
	hit30Keywords         = []string{"hit-30", "hit30", "hamle yuksek teknoloji"}
)

// Generator composes the final answer from retrieved context and history.
type Generator struct {
	LLM provider.Provider
}

const personaPrompt = `Sen Türkiye'deki yatırım teşvikleri konusunda uzman bir asistansın.

KURALLAR:
1. Selamlaşma ve teşekkür mesajlarına kısa, samimi ve profesyonel bir dille karşılık ver.
2. Sana verilen bağlam dışında bilgi uydurma. Bağlam boşsa veya soru bağlamla ilgisizse, bu konuda bilgin olmadığını açıkça söyle.
3. Cevaplarını Markdown biçiminde, kısa paragraflar ve gerekirse maddeler halinde yaz.
4. Kullandığın her bilgi için bağlamdaki kaynak numarasını [n] biçiminde cevabın içine ekle.
5. Cevap Yerel Kalkınma Hamlesi programıyla ilgiliyse [badge:yerel-kalkinma|/iletisim] etiketini, HIT-30 programıyla ilgiliyse [badge:hit-30|/iletisim] etiketini cevabın içinde aynen kullan.`

// Generate builds the prompt and invokes the completion provider. History is
// appended before the retrieved context so the conversation takes prompt
// precedence; context rides in a trailing system message. The badge suffix is
// NOT applied here; callers run ApplyBadge on the returned text.
func (g *Generator) Generate(ctx context.Context, history []Turn, results []MatchResult, phrasings []string) (string, error) {
	messages := make([]provider.Message, 0, len(history)+2)
	messages = append(messages, provider.Message{Role: "system", Content: personaPrompt})

	for _, t := range history {
		role := t.Role
		if role != "user" && role != "assistant" {
			role = "user"
		}
		messages = append(messages, provider.Message{Role: role, Content: t.Content})
	}

	if len(results) > 0 {
		messages = append(messages, provider.Message{Role: "system", Content: buildContextMessage(results, phrasings)})
	}

	answer, err := g.LLM.Complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

func buildContextMessage(results []MatchResult, phrasings []string) string {
	var b strings.Builder
	b.WriteString("BAĞLAM: aşağıdaki soru/cevap kayıtlarını kullanarak cevap ver:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] Soru: %s\nCevap: %s\nKaynak: %s\n\n", i+1, r.CanonicalQuestion, r.CanonicalAnswer, r.SourceDocument)
	}
	if len(phrasings) > 0 {
		b.WriteString("Kullanıcının sorusuyla eşleşen ifadeler: ")
		b.WriteString(strings.Join(phrasings, "; "))
		b.WriteString("\n")
	}
	return b.String()
}

// ApplyBadge appends the fixed informational sentence plus exactly one badge
// tag when the answer contains any trigger keyword. The badge kind is decided
// by first program-keyword match, contact badge otherwise. Calling it on text
// that already carries a badge tag is a no-op.
func ApplyBadge(answer string) string {
	if strings.Contains(answer, badgeInfoSentence) {
		return answer
	}
	folded := foldTurkish(answer)
	triggered := false
	for _, kw := range badgeTriggerKeywords {
		if strings.Contains(folded, kw) {
			triggered = true
			break
		}
	}
	if !triggered {
		return answer
	}
	badge := BadgeContact
	for _, kw := range yerelKalkinmaKeywords {
		if strings.Contains(folded, kw) {
			badge = BadgeYerelKalkinma
			break
		}
	}
	if badge == BadgeContact {
		for _, kw := range hit30Keywords {
			if strings.Contains(folded, kw) {
				badge = BadgeHIT30
				break
			}
		}
	}
	return answer + "\n\n" + badgeInfoSentence + " " + badge
}
