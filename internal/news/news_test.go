package news

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/newsboard/internal/sources"
)

var (
	fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	g1Source = sources.NewsSource{ID: "g1", Name: "G1 Santos e Regiao", Type: sources.TypeG1, FeedURL: "https://g1.globo.com/rss"}
	spSource = sources.NewsSource{ID: "santa-portal", Name: "Santa Portal", Type: sources.TypeSantaPortal, FeedURL: "https://santaportal.com.br/feed/"}
	dlSource = sources.NewsSource{ID: "diario-litoral", Name: "Diario do Litoral", Type: sources.TypeDiarioLitoral, FeedURL: "https://www.diariodolitoral.com.br/rss/"}
)

func testNormalizer() *Normalizer {
	n := NewNormalizer(English)
	n.Now = func() time.Time { return fixedNow }
	n.RandomID = func() string { return "randomrandomrand" }
	return n
}

func at(d time.Duration) *time.Time {
	t := fixedNow.Add(-d)
	return &t
}

func TestNormalize_Basic(t *testing.T) {
	n := testNormalizer()
	entry := RawFeedEntry{
		Title:          "  Hello <b>World</b>  ",
		Link:           " https://g1.globo.com/sp/santos-regiao/noticia/santos/obra.ghtml ",
		PubDate:        "Sun, 10 Mar 2024 10:00:00 +0000",
		PubDateParsed:  at(2 * time.Hour),
		ContentEncoded: `<p>First &amp; <i>best</i></p><p>Second</p><img src="https://s2.glbimg.com/foto-300x200.jpg">`,
		Description:    "ignored",
	}

	item, ok := n.Normalize(entry, g1Source)
	require.True(t, ok)

	assert.Equal(t, "Hello World", item.Title)
	assert.Equal(t, "https://g1.globo.com/sp/santos-regiao/noticia/santos/obra.ghtml", item.Link)
	assert.Equal(t, "First & best", item.Description)
	assert.Equal(t, "https://s2.glbimg.com/foto.jpg", item.Thumbnail)
	assert.Equal(t, "Sun, 10 Mar 2024 10:00:00 +0000", item.PubDate)
	assert.Equal(t, "2h ago", item.PubDateFormatted)
	assert.Equal(t, "G1 Santos e Regiao", item.Source)
	assert.Equal(t, "Santos", item.Category)
	assert.Len(t, item.ID, 16)
}

func TestNormalize_Idempotent(t *testing.T) {
	n := testNormalizer()
	entry := RawFeedEntry{
		Title:       "Prefeitura de Santos anuncia obras na orla da praia",
		Link:        "https://santaportal.com.br/noticia/1",
		Description: "<div>Texto</div>",
		Categories:  []string{"Cidade"},
	}

	first, ok := n.Normalize(entry, spSource)
	require.True(t, ok)
	second, ok := n.Normalize(entry, spSource)
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.Equal(t, "UHJlZmVpdHVyYSUy", first.ID)
	assert.Equal(t, fixedNow.Format(time.RFC3339), first.PubDate)
	assert.Equal(t, "now", first.PubDateFormatted)
}

func TestNormalize_Rejects(t *testing.T) {
	n := testNormalizer()
	tests := []struct {
		name  string
		entry RawFeedEntry
	}{
		{"empty title", RawFeedEntry{Title: "", Link: "https://x.com/a"}},
		{"blank title", RawFeedEntry{Title: " \t\n ", Link: "https://x.com/a"}},
		{"tags only title", RawFeedEntry{Title: "<b></b>", Link: "https://x.com/a"}},
		{"empty link", RawFeedEntry{Title: "News", Link: ""}},
		{"blank link and guid", RawFeedEntry{Title: "News", Link: "  ", GUID: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := n.Normalize(tt.entry, dlSource)
			assert.False(t, ok)
		})
	}
}

func TestNormalize_LinkFallsBackToGUID(t *testing.T) {
	item, ok := testNormalizer().Normalize(RawFeedEntry{Title: "News", GUID: "https://x.com/guid"}, dlSource)
	require.True(t, ok)
	assert.Equal(t, "https://x.com/guid", item.Link)
}

func TestNormalize_ThumbnailInvariant(t *testing.T) {
	n := testNormalizer()
	tests := []struct {
		name  string
		entry RawFeedEntry
		src   sources.NewsSource
		want  string
	}{
		{
			name:  "enclosure wins",
			entry: RawFeedEntry{EnclosureURL: "https://cdn.com/a.jpg", MediaContentURLs: []string{"https://cdn.com/b.jpg"}},
			src:   dlSource,
			want:  "https://cdn.com/a.jpg",
		},
		{
			name:  "media content",
			entry: RawFeedEntry{MediaContentURLs: []string{"", "https://cdn.com/b.jpg?w=300"}},
			src:   dlSource,
			want:  "https://cdn.com/b.jpg?w=1600",
		},
		{
			name:  "image from description",
			entry: RawFeedEntry{Description: `<p>x</p><IMG class="a" src='https://cdn.com/c.png'>`},
			src:   dlSource,
			want:  "https://cdn.com/c.png",
		},
		{
			name:  "protocol relative",
			entry: RawFeedEntry{EnclosureURL: "//cdn.com/d.jpg"},
			src:   dlSource,
			want:  "https://cdn.com/d.jpg",
		},
		{
			name:  "too short uses placeholder",
			entry: RawFeedEntry{EnclosureURL: "a.jpg"},
			src:   g1Source,
			want:  placeholderG1,
		},
		{
			name:  "relative path uses placeholder",
			entry: RawFeedEntry{EnclosureURL: "/uploads/image.jpg"},
			src:   spSource,
			want:  placeholderSantaPortal,
		},
		{
			name:  "nothing uses placeholder",
			entry: RawFeedEntry{},
			src:   dlSource,
			want:  placeholderDefault,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.entry.Title = "Title"
			tt.entry.Link = "https://x.com/a"
			item, ok := n.Normalize(tt.entry, tt.src)
			require.True(t, ok)
			assert.Equal(t, tt.want, item.Thumbnail)
			assert.True(t, strings.HasPrefix(item.Thumbnail, "http"))
		})
	}
}

func TestNormalize_DescriptionPriority(t *testing.T) {
	n := testNormalizer()
	base := RawFeedEntry{Title: "T", Link: "https://x.com"}

	e := base
	e.Content, e.Summary, e.ContentSnippet, e.Description = "content", "summary", "snippet", "description"
	item, _ := n.Normalize(e, dlSource)
	assert.Equal(t, "content", item.Description)

	e = base
	e.Summary, e.Description = "summary", "description"
	item, _ = n.Normalize(e, dlSource)
	assert.Equal(t, "summary", item.Description)

	e = base
	e.ContentSnippet, e.Description = "snippet", "description"
	item, _ = n.Normalize(e, dlSource)
	assert.Equal(t, "snippet", item.Description)

	e = base
	item, _ = n.Normalize(e, dlSource)
	assert.Equal(t, "", item.Description)
}

func TestNormalize_Category(t *testing.T) {
	n := testNormalizer()

	item, _ := n.Normalize(RawFeedEntry{Title: "T", Link: "https://x.com", Categories: []string{" ", "Policia"}}, spSource)
	assert.Equal(t, "Policia", item.Category)

	item, _ = n.Normalize(RawFeedEntry{Title: "T", Link: "https://x.com"}, spSource)
	assert.Equal(t, DefaultCategory, item.Category)

	item, _ = n.Normalize(RawFeedEntry{Title: "T", Link: "https://g1.globo.com/sp/x.ghtml", Categories: []string{"Ignored"}}, g1Source)
	assert.Equal(t, RegionalCategory, item.Category)
}

func TestNormalize_RandomIDOnEncodingFailure(t *testing.T) {
	item, ok := testNormalizer().Normalize(RawFeedEntry{Title: "bad \xff title", Link: "https://x.com"}, dlSource)
	require.True(t, ok)
	assert.Equal(t, "randomrandomrand", item.ID)
}

func TestNormalize_UnparsableDate(t *testing.T) {
	item, ok := testNormalizer().Normalize(RawFeedEntry{Title: "T", Link: "https://x.com", PubDate: "not a date"}, dlSource)
	require.True(t, ok)
	assert.Equal(t, "not a date", item.PubDate)
	assert.Equal(t, "today", item.PubDateFormatted)
}

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"plain", "plain"},
		{"<p>Hello <b>there</b></p>", "Hello there"},
		{"a&nbsp;b &quot;c&quot; d &amp; e &lt;f&gt; &#39;g&#39;", `a b "c" d & e <f> 'g'`},
		{"  many \n\t spaces  ", "many spaces"},
		{"&amp;lt;", "<"},
		{"keep &eacute;", "keep &eacute;"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanHTML(tt.in), "input %q", tt.in)
	}
}

func TestFirstParagraph(t *testing.T) {
	assert.Equal(t, "One", FirstParagraph(`<P class="x">One</P><p>Two</p>`))
	assert.Equal(t, "multi line", FirstParagraph("<p>multi\nline</p>"))
	assert.Equal(t, "no paragraph here", FirstParagraph("<div>no paragraph</div> here"))
	assert.Equal(t, "after", FirstParagraph("<p></p>after"))
	assert.Equal(t, "", FirstParagraph(""))
}

func TestFirstImage(t *testing.T) {
	assert.Equal(t, "https://a.com/1.jpg", FirstImage(`<p>t</p><img alt="x"><img src="https://a.com/1.jpg"><img src="https://a.com/2.jpg">`))
	assert.Equal(t, "", FirstImage("no images"))
	assert.Equal(t, "", FirstImage(""))
}

func TestUpgradeImageURL(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"wordpress size suffix", "https://site.com/wp-content/uploads/2024/01/foto-300x200.jpg", "https://site.com/wp-content/uploads/2024/01/foto.jpg"},
		{"four digit suffix", "https://site.com/a-1024x768.webp", "https://site.com/a.webp"},
		{"width and height params", "https://img.com/a.jpg?w=300&h=200", "https://img.com/a.jpg?w=1600&h=900"},
		{"long names", "https://img.com/a.jpg?width=300&height=200&q=80", "https://img.com/a.jpg?width=1600&height=900&q=80"},
		{"resize param", "https://img.com/a.jpg?resize=300,200&ssl=1", "https://img.com/a.jpg?resize=1600%2C900&ssl=1"},
		{"fit param", "https://img.com/a.jpg?fit=300%2C200", "https://img.com/a.jpg?fit=1600%2C900"},
		{"suffix and params", "https://img.com/a-150x150.png?w=150", "https://img.com/a.png?w=1600"},
		{"no change", "https://img.com/a.jpg?q=80", "https://img.com/a.jpg?q=80"},
		{"suffix not before extension", "https://img.com/a-300x200/b.jpg", "https://img.com/a-300x200/b.jpg"},
		{"too many digits", "https://img.com/a-12345x200.jpg", "https://img.com/a-12345x200.jpg"},
		{"not http", "ftp://img.com/a-300x200.jpg", "ftp://img.com/a-300x200.jpg"},
		{"empty", "", ""},
		{"unparsable", "http://[::1/a-300x200.jpg", "http://[::1/a-300x200.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UpgradeImageURL(tt.in))
		})
	}
}

func TestCategoryFromURL(t *testing.T) {
	tests := []struct {
		link, want string
	}{
		{"https://g1.globo.com/sp/santos-regiao/noticia/praia-grande/x.ghtml", "Praia Grande"},
		{"https://g1.globo.com/SP/SANTOS-REGIAO/NOTICIA/SANTOS/x.ghtml", "Santos"},
		{"https://g1.globo.com/sp/guaruja/policia/x.ghtml", "Guaruja"},
		{"https://g1.globo.com/sp/cubatao/x", "Cubatao"},
		{"https://g1.globo.com/sp/sao-vicente/x", "Sao Vicente"},
		{"https://g1.globo.com/sp/bertioga/x", "Bertioga"},
		{"https://g1.globo.com/sp/mongagua/x", "Mongagua"},
		{"https://g1.globo.com/sp/itanhaem/x", "Itanhaem"},
		{"https://g1.globo.com/sp/peruibe/x", "Peruibe"},
		{"https://g1.globo.com/sp/crime/x", "Policia"},
		{"https://g1.globo.com/sp/policia/x", "Policia"},
		{"https://g1.globo.com/sp/transito/x", "Transito"},
		{"https://g1.globo.com/sp/economia/x", "Economia"},
		{"https://g1.globo.com/sp/saude/x", "Saude"},
		{"https://g1.globo.com/sp/educacao/x", "Educacao"},
		{"https://g1.globo.com/sp/esporte/x", "Esportes"},
		{"https://g1.globo.com/sp/politica/x", "Politica"},
		{"https://g1.globo.com/sp/santos-regiao/x", "Baixada Santista"},
		{"", "Baixada Santista"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CategoryFromURL(tt.link), tt.link)
	}
}

func TestGenerateID(t *testing.T) {
	id, ok := GenerateID("Hello World")
	require.True(t, ok)
	assert.Equal(t, "SGVsbG8lMjBXb3Js", id)

	id, ok = GenerateID("Ação")
	require.True(t, ok)
	assert.Equal(t, "QSVDMyVBNyVDMyVB", id)

	a, _ := GenerateID("Same first thirty characters!! then A")
	b, _ := GenerateID("Same first thirty characters!! then B")
	assert.Equal(t, a, b)

	_, ok = GenerateID("\xff")
	assert.False(t, ok)
}

func TestGenerateID_CountsUTF16Units(t *testing.T) {
	pad := strings.Repeat("a", 28)

	// The emoji fills units 29 and 30, so nothing after it matters.
	a, ok := GenerateID(pad + "😀" + "x")
	require.True(t, ok)
	b, ok := GenerateID(pad + "😀" + "y")
	require.True(t, ok)
	assert.Equal(t, a, b)

	// One more unit of padding puts the cut inside the pair.
	_, ok = GenerateID(pad + "a" + "😀")
	assert.False(t, ok)

	prefix, whole := firstUTF16Units(strings.Repeat("😀", 16), 30)
	assert.True(t, whole)
	assert.Equal(t, strings.Repeat("😀", 15), prefix)

	prefix, whole = firstUTF16Units("Ação", 30)
	assert.True(t, whole)
	assert.Equal(t, "Ação", prefix)
}

func TestNormalize_RandomIDWhenCutSplitsEmoji(t *testing.T) {
	title := strings.Repeat("b", 29) + "🚨 alerta"
	item, ok := testNormalizer().Normalize(RawFeedEntry{Title: title, Link: "https://x.com"}, dlSource)
	require.True(t, ok)
	assert.Equal(t, "randomrandomrand", item.ID)
}

func TestRandomToken(t *testing.T) {
	tok := randomToken()
	assert.Len(t, tok, 16)
	for _, c := range tok {
		assert.Contains(t, tokenAlphabet, string(c))
	}
}

func TestFormatRelative(t *testing.T) {
	tests := []struct {
		name   string
		locale Locale
		ago    *time.Time
		want   string
	}{
		{"unparsed", English, nil, "today"},
		{"future", English, at(-3 * time.Hour), "now"},
		{"minutes", English, at(59 * time.Minute), "now"},
		{"hours", English, at(5*time.Hour + 30*time.Minute), "5h ago"},
		{"23 hours", English, at(23 * time.Hour), "23h ago"},
		{"yesterday", English, at(30 * time.Hour), "yesterday"},
		{"days", English, at(72 * time.Hour), "3 days ago"},
		{"six days", English, at(6*24*time.Hour + time.Hour), "6 days ago"},
		{"week", English, at(8 * 24 * time.Hour), "02 Mar"},
		{"pt unparsed", Portuguese, nil, "Hoje"},
		{"pt now", Portuguese, at(time.Minute), "Agora"},
		{"pt hours", Portuguese, at(2 * time.Hour), "2h atras"},
		{"pt yesterday", Portuguese, at(25 * time.Hour), "Ontem"},
		{"pt days", Portuguese, at(50 * time.Hour), "2 dias atras"},
		{"pt date", Portuguese, at(40 * 24 * time.Hour), "30 de jan."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.locale.FormatRelative(tt.ago, fixedNow))
		})
	}
}

func TestLocaleByName(t *testing.T) {
	assert.Equal(t, "pt-BR", LocaleByName("pt-BR").Name)
	assert.Equal(t, "en", LocaleByName("en").Name)
	assert.Equal(t, "en", LocaleByName("fr").Name)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{
		"Sun, 10 Mar 2024 10:00:00 +0000",
		"Sun, 10 Mar 2024 10:00:00 GMT",
		"2024-03-10T10:00:00Z",
		"2024-03-10T10:00:00.123-03:00",
		"Sun, 3 Mar 2024 10:00:00 -0300",
	} {
		_, ok := ParseDate(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseDate("yesterday-ish")
	assert.False(t, ok)
}

func TestProxiedImageURL(t *testing.T) {
	const prefix = "http://localhost:3001/image-proxy"

	assert.Equal(t,
		prefix+"?url=https%3A%2F%2Fs2.glbimg.com%2Fa.jpg%3Fw%3D1",
		ProxiedImageURL(prefix, "https://s2.glbimg.com/a.jpg?w=1"))
	assert.Equal(t, "https://s2.glbimg.com/a.jpg", ProxiedImageURL("", "https://s2.glbimg.com/a.jpg"))
	assert.Equal(t, "data:image/png;base64,xx", ProxiedImageURL(prefix, "data:image/png;base64,xx"))

	proxied := prefix + "?url=x"
	assert.Equal(t, proxied, ProxiedImageURL(prefix, proxied))
}
