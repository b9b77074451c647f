package prequal

import (
	"context"
	"strings"

	"lexconnect/models"
)

// Assessment is the classifier's view of the conversation so far.
type Assessment struct {
	Category string `json:"category"`
	Urgency  string `json:"urgency"`
	Summary  string `json:"summary"`
	City     string `json:"city"`
	Reply    string `json:"reply"`
	Ready    bool   `json:"ready"`
}

type Classifier interface {
	Classify(ctx context.Context, turns []models.PrequalTurn) (*Assessment, error)
}

var categoryKeywords = map[string][]string{
	"family":          {"divorce", "custody", "child support", "alimony", "marriage", "separation", "adoption"},
	"employment":      {"fired", "dismissed", "salary", "wage", "employer", "boss", "overtime", "harassment at work", "contract of employment"},
	"housing":         {"landlord", "tenant", " rent", "eviction", "lease", "deposit", "mortgage"},
	"criminal":        {"arrested", "police", "charged", "theft", "assault", "court summons", "bail"},
	"immigration":     {"visa", "residence permit", "deport", "asylum", "citizenship", "work permit"},
	"consumer":        {"refund", "warranty", "scam", "defective", "purchase", "online order"},
	"business":        {"company", "shareholder", "invoice", "supplier", "trademark", "partnership"},
	"inheritance":     {"last will", "inheritance", "estate", "probate", "heir", "deceased"},
	"personal_injury": {"accident", "injury", "injured", "medical negligence", "insurance claim", "hurt"},
}

var urgentKeywords = []string{"tomorrow", "today", "urgent", "deadline", "hearing", "arrested", "eviction", "immediately", "court date"}

var relaxedKeywords = []string{"no rush", "someday", "general question", "just curious", "eventually"}

// KeywordClassifier is the offline fallback. It scores categories by
// keyword hits across all visitor turns.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, turns []models.PrequalTurn) (*Assessment, error) {
	var sb strings.Builder
	visitorTurns := 0
	for _, t := range turns {
		if t.Role == roleVisitor {
			sb.WriteString(strings.ToLower(t.Text))
			sb.WriteString(" ")
			visitorTurns++
		}
	}
	text := sb.String()

	best, bestHits := "", 0
	for _, cat := range models.Categories {
		hits := 0
		for _, kw := range categoryKeywords[cat] {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = cat, hits
		}
	}

	urgency := models.UrgencyNormal
	if containsAny(text, urgentKeywords) {
		urgency = models.UrgencyHigh
	} else if containsAny(text, relaxedKeywords) {
		urgency = models.UrgencyLow
	}

	a := &Assessment{Urgency: urgency}
	switch {
	case best != "":
		a.Category = best
		a.Ready = true
		a.Summary = firstVisitorLine(turns)
		a.Reply = "This sounds like a " + strings.ReplaceAll(best, "_", " ") +
			" matter. Create a free account to send it to verified lawyers near you."
	case visitorTurns >= 3:
		a.Category = "other"
		a.Ready = true
		a.Summary = firstVisitorLine(turns)
		a.Reply = "Thanks. A lawyer will need to look at this in detail. Create a free account to submit your case."
	default:
		a.Reply = "Could you tell me a bit more? For example who is involved, what happened and whether any deadline applies."
	}
	return a, nil
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func firstVisitorLine(turns []models.PrequalTurn) string {
	for _, t := range turns {
		if t.Role == roleVisitor {
			s := strings.TrimSpace(t.Text)
			if len(s) > 200 {
				s = s[:200]
			}
			return s
		}
	}
	return ""
}
