package adapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prathikkv/pharma-intelligence-sub001/internal/core"
)

func newTestHTTP(server *httptest.Server) httpJSON {
	return httpJSON{Client: server.Client(), UserAgent: "pharmaintel-test"}
}

func TestClinicalTrialsSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v2/studies", r.URL.Path)
		require.Equal(t, "imatinib", r.URL.Query().Get("query.term"))
		require.Equal(t, "5", r.URL.Query().Get("pageSize"))
		require.Equal(t, "pharmaintel-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"totalCount": 42,
			"studies": [{
				"protocolSection": {
					"identificationModule": {"nctId": "NCT00000001", "briefTitle": "Imatinib in CML"},
					"statusModule": {"overallStatus": "ACTIVE_NOT_RECRUITING", "startDateStruct": {"date": "2019-03"}},
					"descriptionModule": {"briefSummary": "A study of imatinib."},
					"designModule": {"phases": ["PHASE2", "PHASE3"], "enrollmentInfo": {"count": 120}},
					"sponsorCollaboratorsModule": {"leadSponsor": {"name": "Novartis"}}
				}
			}]
		}`))
	}))
	defer server.Close()

	ct := &ClinicalTrials{http: newTestHTTP(server), BaseURL: server.URL}
	page, err := ct.Search(context.Background(), "imatinib", 5)
	require.NoError(t, err)
	require.Equal(t, 42, page.Total)
	require.Len(t, page.Results, 1)

	raw := page.Results[0]
	assert.Equal(t, "NCT00000001", raw["nct_id"])
	assert.Equal(t, "Imatinib in CML", raw["title"])
	assert.Equal(t, "Active not recruiting", raw["status"])
	assert.Equal(t, "Phase 2/Phase 3", raw["phase"])
	assert.Equal(t, "2019", raw["year"])
	assert.Equal(t, "120", raw["enrollment"])
	assert.Equal(t, "https://clinicaltrials.gov/study/NCT00000001", raw["link"])
}

func TestClinicalTrialsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	ct := &ClinicalTrials{http: newTestHTTP(server), BaseURL: server.URL}
	_, err := ct.Search(context.Background(), "imatinib", 5)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	require.Equal(t, "3s", statusErr.RetryAfter.String())
}

func TestChEMBLSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chembl/api/data/molecule/search.json", r.URL.Path)
		require.Equal(t, "imatinib", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{
			"page_meta": {"total_count": 3},
			"molecules": [{
				"molecule_chembl_id": "CHEMBL941",
				"pref_name": "IMATINIB",
				"max_phase": "4.0",
				"molecule_type": "Small molecule",
				"first_approval": 2001,
				"molecule_properties": {"full_mwt": "493.62"}
			}]
		}`))
	}))
	defer server.Close()

	c := &ChEMBL{http: newTestHTTP(server), BaseURL: server.URL}
	page, err := c.Search(context.Background(), "imatinib", 10)
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Results, 1)

	raw := page.Results[0]
	assert.Equal(t, "CHEMBL941", raw["chembl_id"])
	assert.Equal(t, "Phase 4", raw["phase"])
	assert.Equal(t, "Approved", raw["status"])
	assert.Equal(t, 2001, raw["year"])
	assert.Contains(t, raw["detail"], "molecular weight 493.62")
}

func TestPubMedSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			_, _ = w.Write([]byte(`{"esearchresult": {"count": "2", "idlist": ["222", "111"]}}`))
		case "/esummary.fcgi":
			require.Equal(t, "222,111", r.URL.Query().Get("id"))
			_, _ = w.Write([]byte(`{"result": {
				"uids": ["111", "222"],
				"111": {"uid": "111", "title": "Older paper", "pubdate": "2001 May", "fulljournalname": "Blood"},
				"222": {"uid": "222", "title": "Newer paper", "pubdate": "2023 Jan 5", "fulljournalname": "NEJM",
					"pubtype": ["Journal Article"], "authors": [{"name": "Doe J"}, {"name": "Roe R"}, {"name": "Poe P"}, {"name": "Zoe Z"}]}
			}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p := &PubMed{http: newTestHTTP(server), BaseURL: server.URL}
	page, err := p.Search(context.Background(), "imatinib", 10)
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Len(t, page.Results, 2)

	assert.Equal(t, "222", page.Results[0]["pmid"])
	assert.Equal(t, "2023", page.Results[0]["year"])
	assert.Equal(t, "Doe J, Roe R, Poe P et al. NEJM.", page.Results[0]["detail"])
	assert.Equal(t, "Journal Article", page.Results[0]["type"])
	assert.Equal(t, "111", page.Results[1]["pmid"])
}

func TestOpenTargetsSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v4/graphql", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req graphQLRequest
		require.NoError(t, json.Unmarshal(body, &req))
		require.Equal(t, "ABL1", req.Variables["q"])

		_, _ = w.Write([]byte(`{"data": {"search": {"total": 1, "hits": [
			{"id": "ENSG00000097007", "name": "ABL1", "entity": "target", "description": "ABL proto-oncogene 1"}
		]}}}`))
	}))
	defer server.Close()

	o := &OpenTargets{http: newTestHTTP(server), BaseURL: server.URL}
	page, err := o.Search(context.Background(), "ABL1", 10)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Target", page.Results[0]["type"])
	assert.Equal(t, "https://platform.opentargets.org/target/ENSG00000097007", page.Results[0]["link"])
}

func TestOpenTargetsGraphQLError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors": [{"message": "bad query"}]}`))
	}))
	defer server.Close()

	o := &OpenTargets{http: newTestHTTP(server), BaseURL: server.URL}
	_, err := o.Search(context.Background(), "ABL1", 10)
	var gqlErr *GraphQLError
	require.ErrorAs(t, err, &gqlErr)
	require.Equal(t, "bad query", gqlErr.Message)
}

func TestDatasetSearchFiltersByTerms(t *testing.T) {
	ds, err := LoadDataset("evaluatepharma")
	require.NoError(t, err)
	require.Equal(t, "EvaluatePharma", ds.Name)

	page, err := ds.Search(context.Background(), "diabetes", 3)
	require.NoError(t, err)
	require.Len(t, page.Results, 3)
	require.Greater(t, page.Total, 3)

	page, err = ds.Search(context.Background(), "nonexistentterm", 10)
	require.NoError(t, err)
	require.Empty(t, page.Results)
	require.Zero(t, page.Total)
}

func TestDatasetSearchHonoursContext(t *testing.T) {
	ds, err := LoadDataset("globaldata")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ds.Search(ctx, "diabetes", 10)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseDatasetRequiresSource(t *testing.T) {
	_, err := ParseDataset([]byte("name: Nameless\nrecords: []\n"))
	require.Error(t, err)
}

func TestBuildCoversBuiltInSources(t *testing.T) {
	reg, err := core.DefaultRegistry(nil)
	require.NoError(t, err)

	adapters, err := Build(reg, Options{})
	require.NoError(t, err)
	for _, id := range reg.IDs() {
		require.Contains(t, adapters, id)
	}
}

func TestBuildRejectsUnknownSource(t *testing.T) {
	reg, err := core.NewRegistry([]core.SourceDescriptor{{ID: "mystery", Timeout: 1, Retries: 1}})
	require.NoError(t, err)

	_, err = Build(reg, Options{})
	require.Error(t, err)
}
