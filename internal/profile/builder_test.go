package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHomepage = `<html>
<head>
	<title>Acme — Invoice Automation for Teams</title>
	<meta name="description" content="Acme automates invoice processing with a free trial and API.">
	<meta name="keywords" content="invoice automation, accounts payable, ap workflow">
	<script type="application/ld+json">
		{"@type": "Organization", "name": "Acme Inc", "alternateName": "Acme"}
	</script>
</head>
<body>
	<h1>Invoice automation that pays for itself</h1>
	<h2>Built for finance teams</h2>
	<a href="/features/invoice-matching">Matching</a>
	<a href="/pricing">Pricing</a>
	<a href="https://other.com/some-external-page">External</a>
	<p>Acme processes thousands of invoices per day with automated approval workflows for finance teams.</p>
	<p>short</p>
</body>
</html>`

func testBuilder(t *testing.T, handler http.Handler) (*Builder, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b := NewBuilder()
	b.http = srv.Client()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return b, u.Host
}

func TestExtract(t *testing.T) {
	b := NewBuilder()
	p := &SiteProfile{Root: "acme.io", Brand: "acme"}
	b.extract(p, []byte(sampleHomepage))

	assert.Equal(t, "saas", p.SiteType, "free trial + api should read as saas")
	assert.Empty(t, p.PrimaryIntent)

	require.NotEmpty(t, p.Seeds)
	assert.Equal(t, "Acme — Invoice Automation for Teams", p.Seeds[0])
	assert.Contains(t, p.Seeds, "Invoice automation that pays for itself")

	assert.Contains(t, p.KeywordChips, "invoice automation")
	assert.Contains(t, p.KeywordChips, "accounts payable")

	assert.Contains(t, p.SlugPhrases, "invoice matching")
	assert.NotContains(t, p.SlugPhrases, "pricing", "single-word slugs are navigation")
	assert.NotContains(t, p.SlugPhrases, "some external page")

	assert.Contains(t, p.StructuredEntities, "Acme Inc")

	require.NotEmpty(t, p.BodySamples)
	assert.Contains(t, p.BodySamples[0], "automated approval workflows")
}

func TestExtractSearchEngineIntent(t *testing.T) {
	html := `<html><head><title>Findly — The Private Search Engine</title></head>
		<body><h1>Search the web privately</h1></body></html>`

	b := NewBuilder()
	p := &SiteProfile{Root: "findly.io", Brand: "findly"}
	b.extract(p, []byte(html))

	assert.Equal(t, "search_engine", p.PrimaryIntent)
}

func TestProfileFetchFailureYieldsMinimalProfile(t *testing.T) {
	b, host := testBuilder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))

	// The test server is plain http; Profile always dials https. The dial
	// failure exercises the minimal-profile path either way.
	p, err := b.Profile(context.Background(), host)
	require.NoError(t, err)
	assert.Equal(t, "services", p.SiteType)
	assert.Empty(t, p.Seeds)
}

func TestBrandToken(t *testing.T) {
	assert.Equal(t, "acme", brandToken("acme.io"))
	assert.Equal(t, "bbc", brandToken("bbc.co.uk"))
}

func TestSlugPhrase(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"/guides/expense-report-automation", "expense report automation"},
		{"/blog/two_part_slug.html", "two part slug"},
		{"/pricing", ""},
		{"https://other.com/multi-word-path", ""},
		{"://bad url", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugPhrase(tt.href, "acme.io"), "href %q", tt.href)
	}
}

func TestJSONLDNames(t *testing.T) {
	assert.Equal(t, []string{"Acme Inc"}, jsonLDNames(`{"name": "Acme Inc"}`))
	assert.Equal(t, []string{"A", "B"}, jsonLDNames(`[{"name": "A"}, {"headline": "B"}]`))
	assert.Nil(t, jsonLDNames(`not json`))
	assert.Nil(t, jsonLDNames(`{"name": 42}`))
}
