package urlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeStripsFragmentsAndDefaultPorts(t *testing.T) {
	got, err := Normalize("HTTPS://Example.ORG:443/docs/Report.pdf#view=Fit")
	require.NoError(t, err)
	require.Equal(t, "https://example.org/docs/Report.pdf", got)

	got, err = Normalize("http://example.org:80/a?b=2&a=1")
	require.NoError(t, err)
	require.Equal(t, "http://example.org/a?a=1&b=2", got)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	first, err := Normalize("https://example.org/path?z=1&a=2#frag")
	require.NoError(t, err)
	second, err := Normalize(first)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestResolveRelativeReferences(t *testing.T) {
	got, err := Resolve("https://example.org/news/index.html", "../files/report.pdf")
	require.NoError(t, err)
	require.Equal(t, "https://example.org/files/report.pdf", got)

	got, err = Resolve("https://example.org/news/", "/download?type=pdf")
	require.NoError(t, err)
	require.Equal(t, "https://example.org/download?type=pdf", got)
}

func TestEnsureScheme(t *testing.T) {
	require.Equal(t, "https://example.org", EnsureScheme("example.org"))
	require.Equal(t, "http://example.org", EnsureScheme("http://example.org"))
}

func TestSameSite(t *testing.T) {
	base := "https://www.example.org"
	require.True(t, SameSite("https://example.org/page", base))
	require.True(t, SameSite("https://files.example.org/a.pdf", base), "subdomains are the same site")
	require.False(t, SameSite("https://example.com/page", base))
	require.False(t, SameSite("https://notexample.org/page", base))
}
