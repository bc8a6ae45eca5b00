package pipeline

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/johntannerworthington/icypeascontactgenerator/internal/ledger"
	"github.com/johntannerworthington/icypeascontactgenerator/internal/model"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/icypeas"
)

func candidates(urls ...string) []model.Candidate {
	out := make([]model.Candidate, len(urls))
	for i, u := range urls {
		out[i] = testCandidate(u, i)
	}
	return out
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size int
		want []int
	}{
		{"empty", 0, 50, nil},
		{"exact", 4, 2, []int{2, 2}},
		{"remainder", 5, 2, []int{2, 2, 1}},
		{"single", 3, 50, []int{3}},
		{"zero size uses default", 51, 0, []int{50, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands := make([]model.Candidate, tt.n)
			var sizes []int
			for _, ch := range Chunk(cands, tt.size) {
				sizes = append(sizes, len(ch))
			}
			assert.Equal(t, tt.want, sizes)
		})
	}
}

func TestEnrichPhase_PositionalAlignment(t *testing.T) {
	env, sink, l := newTestEnv()
	cands := candidates("u0", "u1", "u2")

	ic := &mockIcypeasClient{}
	// Profile URLs in the response deliberately differ from the request.
	jane := foundProfile("Jane", "Doe", icypeas.Position{Name: "Acme", JobTitle: "CEO", EndDate: model.CurrentEndDate})
	jane.Result.URL = "https://www.linkedin.com/in/someone-else"
	ic.On("ScrapeProfiles", mock.Anything, []string{"u0", "u1", "u2"}).Return(&icypeas.ScrapeResponse{
		Success: true,
		Data: []icypeas.ProfileResult{
			jane,
			notFound(),
			foundProfile("John", "Roe"),
		},
	}, nil)

	out := EnrichPhase(context.Background(), cands, ic, testRunner(), 50, env)
	require.Len(t, out, 2)
	assert.Equal(t, "u0", out[0].URL)
	assert.Equal(t, "Jane", out[0].FirstName)
	assert.Equal(t, []model.EmploymentRecord{{Employer: "Acme", Title: "CEO", EndDate: model.CurrentEndDate}}, out[0].Employment)
	assert.Equal(t, "u2", out[1].URL)
	assert.Equal(t, "John", out[1].FirstName)

	assert.Equal(t, []string{"profile not found in Icypeas: u1"}, sink.Reasons())
	assert.Equal(t, int64(2), l.Get(ledger.StageEnrich, ledger.Profiles))
	assert.Equal(t, int64(1), l.Get(ledger.StageEnrich, ledger.Requests))
	ic.AssertExpectations(t)
}

func TestEnrichPhase_MissingNameIsNotFound(t *testing.T) {
	env, sink, l := newTestEnv()
	ic := &mockIcypeasClient{}
	ic.On("ScrapeProfiles", mock.Anything, []string{"u0", "u1"}).Return(&icypeas.ScrapeResponse{
		Success: true,
		Data:    []icypeas.ProfileResult{foundProfile("Jane", ""), foundProfile("", "Doe")},
	}, nil)

	out := EnrichPhase(context.Background(), candidates("u0", "u1"), ic, testRunner(), 50, env)
	assert.Empty(t, out)
	assert.Equal(t, []string{
		"profile not found in Icypeas: u0",
		"profile not found in Icypeas: u1",
	}, sink.Reasons())
	// Found profiles are billed even without a usable name.
	assert.Equal(t, int64(2), l.Get(ledger.StageEnrich, ledger.Profiles))
}

func TestEnrichPhase_ShortResponse(t *testing.T) {
	env, sink, _ := newTestEnv()
	ic := &mockIcypeasClient{}
	ic.On("ScrapeProfiles", mock.Anything, []string{"u0", "u1", "u2"}).Return(&icypeas.ScrapeResponse{
		Success: true,
		Data:    []icypeas.ProfileResult{foundProfile("Jane", "Doe")},
	}, nil)

	out := EnrichPhase(context.Background(), candidates("u0", "u1", "u2"), ic, testRunner(), 50, env)
	require.Len(t, out, 1)
	assert.Equal(t, "u0", out[0].URL)
	assert.Equal(t, []string{
		"missing from Icypeas response: u1",
		"missing from Icypeas response: u2",
	}, sink.Reasons())
}

func TestEnrichPhase_Unsuccessful(t *testing.T) {
	env, sink, l := newTestEnv()
	ic := &mockIcypeasClient{}
	ic.On("ScrapeProfiles", mock.Anything, []string{"u0", "u1"}).Return(&icypeas.ScrapeResponse{Success: false}, nil)

	out := EnrichPhase(context.Background(), candidates("u0", "u1"), ic, testRunner(), 50, env)
	assert.Empty(t, out)
	assert.Equal(t, []string{"bulk search unsuccessful", "bulk search unsuccessful"}, sink.Reasons())
	assert.Equal(t, int64(2), l.Get(ledger.StageEnrich, ledger.Dropped))
}

func TestEnrichPhase_ChunkFailureAuditsEveryMember(t *testing.T) {
	env, sink, _ := newTestEnv()
	cands := candidates("u0", "u1", "u2")

	ic := &mockIcypeasClient{}
	ic.On("ScrapeProfiles", mock.Anything, []string{"u0", "u1"}).Return(nil, errors.New("connection reset by peer"))
	ic.On("ScrapeProfiles", mock.Anything, []string{"u2"}).Return(&icypeas.ScrapeResponse{
		Success: true,
		Data:    []icypeas.ProfileResult{foundProfile("Jane", "Doe")},
	}, nil)

	out := EnrichPhase(context.Background(), cands, ic, testRunner(), 2, env)
	require.Len(t, out, 1)
	assert.Equal(t, "u2", out[0].URL)

	entries := sink.Entries()
	require.Len(t, entries, 2)
	keys := []model.QueryKey{entries[0].Key, entries[1].Key}
	assert.ElementsMatch(t, []model.QueryKey{cands[0].Query.Key, cands[1].Query.Key}, keys)
	for _, e := range entries {
		assert.Equal(t, "bulk search request failed: connection reset by peer", e.Reason)
	}
}

func TestEnrichPhase_ManyChunks(t *testing.T) {
	env, sink, l := newTestEnv()
	urls := []string{"u0", "u1", "u2", "u3", "u4"}

	ic := &mockIcypeasClient{}
	for _, batch := range [][]string{{"u0", "u1"}, {"u2", "u3"}, {"u4"}} {
		data := make([]icypeas.ProfileResult, len(batch))
		for i := range batch {
			data[i] = foundProfile("First", "Last")
		}
		ic.On("ScrapeProfiles", mock.Anything, batch).Return(&icypeas.ScrapeResponse{Success: true, Data: data}, nil).Once()
	}

	out := EnrichPhase(context.Background(), candidates(urls...), ic, testRunner(), 2, env)
	got := make([]string, len(out))
	for i, c := range out {
		got[i] = c.URL
	}
	sort.Strings(got)
	assert.Equal(t, urls, got)
	assert.Empty(t, sink.Entries())
	assert.Equal(t, int64(3), l.Get(ledger.StageEnrich, ledger.Requests))
	ic.AssertNumberOfCalls(t, "ScrapeProfiles", 3)
}
