// Package faq serves the static FAQ corpus backing the chat assistant's
// keyword matching and the public FAQ endpoints.
package faq

import (
	"context"
	"strings"

	"github.com/bitpredict/trading-platform/internal/cache"
	"github.com/bitpredict/trading-platform/internal/metrics"
	"github.com/bitpredict/trading-platform/pkg/logger"
)

// Entry is one FAQ item.
type Entry struct {
	ID       int      `json:"id"`
	Keywords []string `json:"keywords"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Category string   `json:"category"`
}

// defaultCorpus seeds the service. A larger corpus would live in the
// relational store; the original shipped it inline.
var defaultCorpus = []Entry{
	{
		ID:       1,
		Keywords: []string{"trade", "how", "start"},
		Question: "How do I start trading?",
		Answer:   "To start trading: 1) Complete your account verification 2) Deposit funds 3) Navigate to the trading interface 4) Select your trading pair 5) Place your first order. Always start with small amounts and use the demo account first.",
		Category: "trading",
	},
	{
		ID:       2,
		Keywords: []string{"deposit", "fund", "money"},
		Question: "How do I deposit funds?",
		Answer:   "You can deposit funds through: 1) Bank transfer 2) Credit/Debit card 3) Cryptocurrency transfer. Go to the Wallet section and select your preferred deposit method.",
		Category: "payments",
	},
	{
		ID:       3,
		Keywords: []string{"withdraw", "withdrawal"},
		Question: "How do I withdraw funds?",
		Answer:   "Withdrawals are processed from the Wallet section. Verified accounts can withdraw to a linked bank account or an external wallet address. Processing usually completes within one business day.",
		Category: "payments",
	},
	{
		ID:       4,
		Keywords: []string{"fee", "fees", "cost"},
		Question: "What fees do you charge?",
		Answer:   "Spot trades carry a 0.1% taker fee and a 0.08% maker fee. Deposits are free; withdrawal fees depend on the network. The full schedule is on the Fees page.",
		Category: "trading",
	},
	{
		ID:       5,
		Keywords: []string{"verify", "verification", "kyc"},
		Question: "Why is my account not verified?",
		Answer:   "Check your inbox for the verification email sent at registration and follow its link. If it expired, request a new one from the login screen.",
		Category: "account",
	},
}

// Service answers FAQ lookups, keeping the corpus warm in the cache store.
type Service struct {
	cache  *cache.Service
	corpus []Entry
	log    *logger.Logger
}

// New constructs the FAQ service and primes the cache.
func New(ctx context.Context, cacheSvc *cache.Service, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("faq")
	}
	s := &Service{cache: cacheSvc, corpus: defaultCorpus, log: log}
	s.cache.CacheFAQ(ctx, s.corpus)
	return s
}

// All returns every FAQ entry, preferring the cached copy.
func (s *Service) All(ctx context.Context) []Entry {
	var cached []Entry
	if s.cache.GetFAQ(ctx, &cached) && len(cached) > 0 {
		metrics.RecordCacheLookup(true)
		return cached
	}
	metrics.RecordCacheLookup(false)
	s.cache.CacheFAQ(ctx, s.corpus)
	return s.corpus
}

// ByCategory filters entries by category.
func (s *Service) ByCategory(ctx context.Context, category string) []Entry {
	var out []Entry
	for _, e := range s.All(ctx) {
		if strings.EqualFold(e.Category, category) {
			out = append(out, e)
		}
	}
	return out
}

// ByID returns one entry, or false when the id is unknown.
func (s *Service) ByID(ctx context.Context, id int) (Entry, bool) {
	for _, e := range s.All(ctx) {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Search returns entries whose keywords or question match the query words.
func (s *Service) Search(ctx context.Context, query string) []Entry {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(query)) {
		words[w] = struct{}{}
	}

	var out []Entry
	for _, e := range s.All(ctx) {
		if s.matches(e, words) {
			out = append(out, e)
		}
	}
	return out
}

// Match returns the answer for the first entry whose keywords appear in the
// message, or false when nothing matches. Used by the chat assistant before
// falling through to the completion API.
func (s *Service) Match(ctx context.Context, message string) (string, bool) {
	normalized := strings.ToLower(message)
	for _, e := range s.All(ctx) {
		for _, kw := range e.Keywords {
			if strings.Contains(normalized, strings.ToLower(kw)) {
				return e.Answer, true
			}
		}
	}
	return "", false
}

func (s *Service) matches(e Entry, words map[string]struct{}) bool {
	for _, kw := range e.Keywords {
		if _, ok := words[strings.ToLower(kw)]; ok {
			return true
		}
	}
	question := strings.ToLower(e.Question)
	for w := range words {
		if strings.Contains(question, w) {
			return true
		}
	}
	return false
}
