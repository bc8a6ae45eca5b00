package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/audit"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/fanout"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/ledger"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/match"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/findymail"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/icypeas"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/serper"
)

// --- Serper Mock ---

type mockSerperClient struct {
	mock.Mock
}

func (m *mockSerperClient) Search(ctx context.Context, query string) (*serper.SearchResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*serper.SearchResponse), args.Error(1)
}

// --- Icypeas Mock ---

type mockIcypeasClient struct {
	mock.Mock
}

func (m *mockIcypeasClient) ScrapeProfiles(ctx context.Context, urls []string) (*icypeas.ScrapeResponse, error) {
	args := m.Called(ctx, urls)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*icypeas.ScrapeResponse), args.Error(1)
}

// --- Findymail Mock ---

type mockFindymailClient struct {
	mock.Mock
}

func (m *mockFindymailClient) FindByName(ctx context.Context, name, domain string) (*findymail.Contact, error) {
	args := m.Called(ctx, name, domain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*findymail.Contact), args.Error(1)
}

// --- Matcher Mock ---

type mockMatcher struct {
	mock.Mock
}

func (m *mockMatcher) MatchOrganization(ctx context.Context, target, candidate string) (match.Verdict, error) {
	args := m.Called(ctx, target, candidate)
	return args.Get(0).(match.Verdict), args.Error(1)
}

func (m *mockMatcher) MatchTitle(ctx context.Context, targets []string, candidate string) (match.Verdict, error) {
	args := m.Called(ctx, targets, candidate)
	return args.Get(0).(match.Verdict), args.Error(1)
}

// --- helpers ---

func newTestEnv() (Env, *audit.MemorySink, *ledger.Ledger) {
	sink := &audit.MemorySink{}
	l := ledger.New()
	return Env{Audit: sink, Ledger: l}, sink, l
}

func testRunner() fanout.Runner {
	return fanout.NewPool(4)
}

func testQuery(seq int, company, title string) model.Query {
	c := model.Company{Name: company, Domain: "acme.com"}
	return model.Query{
		Key:     model.NewQueryKey(c, title, model.VariantName),
		Seq:     seq,
		Text:    company + " " + title + " site:linkedin.com/in",
		Company: company,
		Domain:  c.Domain,
		Title:   title,
		Variant: model.VariantName,
	}
}

func testCandidate(url string, seq int) model.Candidate {
	q := testQuery(seq, "Acme", "CEO")
	return model.Candidate{
		URL:     url,
		Query:   q,
		Company: q.Company,
		Domain:  q.Domain,
		Titles:  []string{q.Title},
	}
}

func foundProfile(first, last string, history ...icypeas.Position) icypeas.ProfileResult {
	return icypeas.ProfileResult{
		Status: icypeas.StatusFound,
		Result: icypeas.Profile{FirstName: first, LastName: last, WorksFor: history},
	}
}

func notFound() icypeas.ProfileResult {
	return icypeas.ProfileResult{Status: "NOT_FOUND"}
}
