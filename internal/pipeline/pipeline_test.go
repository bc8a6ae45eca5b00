package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/audit"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/config"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/cost"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/fanout"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/ledger"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/match"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/findymail"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/icypeas"
)

func testConfig() *config.Config {
	limits := fanout.Limits{Concurrency: 4}
	return &config.Config{
		Serper:    config.ProviderConfig{Limits: limits},
		Icypeas:   config.ProviderConfig{Limits: limits},
		Findymail: config.ProviderConfig{Limits: limits},
		Pipeline:  config.PipelineConfig{BatchSize: 50, ValidationWorkers: 4},
	}
}

func TestPipeline_Run_FullFlow(t *testing.T) {
	companies := []model.Company{{Name: "Acme", Domain: "acme.com"}}
	titles := []string{"CEO"}

	sc := &mockSerperClient{}
	sc.On("Search", mock.Anything, "Acme CEO site:linkedin.com/in").Return(serperHit(janeURL), nil)
	sc.On("Search", mock.Anything, "acme.com CEO site:linkedin.com/in").Return(serperHit(janeURL), nil)

	ic := &mockIcypeasClient{}
	ic.On("ScrapeProfiles", mock.Anything, []string{janeURL}).Return(&icypeas.ScrapeResponse{
		Success: true,
		Data: []icypeas.ProfileResult{foundProfile("Jane", "Doe",
			icypeas.Position{Name: "Acme Inc", JobTitle: "Chief Executive Officer", EndDate: "2024-01-01"},
			icypeas.Position{Name: "Acme", JobTitle: "CEO", EndDate: model.CurrentEndDateAlt},
		)},
	}, nil)

	m := &mockMatcher{}
	m.On("MatchOrganization", mock.Anything, "Acme", "Acme").Return(match.Verdict{Matched: true, CostUnits: 100}, nil)
	m.On("MatchTitle", mock.Anything, []string{"CEO", "CEO"}, "CEO").Return(match.Verdict{Matched: true, CostUnits: 120}, nil)

	fc := &mockFindymailClient{}
	fc.On("FindByName", mock.Anything, "Jane Doe", "acme.com").Return(&findymail.Contact{Email: "jane@acme.com"}, nil)

	sink := &audit.MemorySink{}
	l := ledger.New()
	p := New(testConfig(), sc, ic, fc, m, sink, l)

	report, err := p.Run(context.Background(), companies, titles)
	require.NoError(t, err)

	assert.Len(t, report.Queries, 2)
	require.Len(t, report.Candidates, 1)
	assert.Equal(t, []string{"CEO", "CEO"}, report.Candidates[0].Titles)
	assert.Equal(t, model.VariantName, report.Candidates[0].Query.Variant)

	require.Len(t, report.Results, 1)
	res := report.Results[0]
	assert.True(t, res.Valid)
	assert.Equal(t, "Jane Doe", res.FullName())
	assert.Equal(t, "CEO", res.CurrentTitle)
	assert.Equal(t, "jane@acme.com", res.Email)
	assert.Equal(t, int64(220), res.MatchCost)

	assert.Equal(t, []string{"duplicate URL found: " + janeURL}, sink.Reasons())

	s := l.Summary(cost.NewCalculator(cost.DefaultRates()))
	assert.Equal(t, int64(1), s.Companies)
	assert.Equal(t, int64(2), s.Queries)
	assert.Equal(t, int64(2), s.SerperCredits)
	assert.Equal(t, int64(2), s.URLsFound)
	assert.Equal(t, int64(1), s.Deduplicated)
	assert.Equal(t, int64(1), s.IcypeasProfiles)
	assert.Equal(t, int64(220), s.MatchTokens)
	assert.Equal(t, int64(1), s.Matches)
	assert.Equal(t, int64(1), s.Emails)
	assert.Greater(t, s.TotalCost, 0.0)

	sc.AssertExpectations(t)
	ic.AssertExpectations(t)
	m.AssertExpectations(t)
	fc.AssertExpectations(t)
}

func TestPipeline_Run_NothingFound(t *testing.T) {
	sc := &mockSerperClient{}
	sc.On("Search", mock.Anything, mock.Anything).Return(serperHit("https://acme.com/about"), nil)
	ic := &mockIcypeasClient{}
	fc := &mockFindymailClient{}
	m := &mockMatcher{}

	sink := &audit.MemorySink{}
	p := New(testConfig(), sc, ic, fc, m, sink, nil)

	report, err := p.Run(context.Background(),
		[]model.Company{{Name: "Acme", Domain: "acme.com"}, {Name: "Globex", Domain: "globex.com"}},
		[]string{"CEO", "CFO"},
	)
	require.NoError(t, err)
	assert.Len(t, report.Queries, 8)
	assert.Empty(t, report.Candidates)
	assert.Empty(t, report.Results)
	assert.Len(t, sink.Entries(), 8, "one audit per query")

	ic.AssertNotCalled(t, "ScrapeProfiles", mock.Anything, mock.Anything)
	fc.AssertNotCalled(t, "FindByName", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipeline_Run_CancelledContext(t *testing.T) {
	sc := &mockSerperClient{}
	p := New(testConfig(), sc, &mockIcypeasClient{}, &mockFindymailClient{}, &mockMatcher{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx, []model.Company{{Name: "Acme", Domain: "acme.com"}}, []string{"CEO"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Len(t, report.Queries, 2)
	sc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestPipeline_Run_EmptyInput(t *testing.T) {
	p := New(testConfig(), &mockSerperClient{}, &mockIcypeasClient{}, &mockFindymailClient{}, &mockMatcher{}, nil, nil)

	report, err := p.Run(context.Background(), nil, []string{"CEO"})
	require.NoError(t, err)
	assert.Empty(t, report.Queries)
	assert.Empty(t, report.Results)
}
