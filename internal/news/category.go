package news

import "strings"

const (
	DefaultCategory  = "Regional"
	RegionalCategory = "Baixada Santista"
)

type pathCategory struct {
	segments []string
	label    string
}

// Cities come before topics; the first match wins.
var urlCategories = []pathCategory{
	{[]string{"/praia-grande/"}, "Praia Grande"},
	{[]string{"/santos/"}, "Santos"},
	{[]string{"/guaruja/"}, "Guaruja"},
	{[]string{"/cubatao/"}, "Cubatao"},
	{[]string{"/sao-vicente/"}, "Sao Vicente"},
	{[]string{"/bertioga/"}, "Bertioga"},
	{[]string{"/mongagua/"}, "Mongagua"},
	{[]string{"/itanhaem/"}, "Itanhaem"},
	{[]string{"/peruibe/"}, "Peruibe"},

	{[]string{"/policia/", "/crime/"}, "Policia"},
	{[]string{"/transito/"}, "Transito"},
	{[]string{"/economia/"}, "Economia"},
	{[]string{"/saude/"}, "Saude"},
	{[]string{"/educacao/"}, "Educacao"},
	{[]string{"/esporte/"}, "Esportes"},
	{[]string{"/politica/"}, "Politica"},
}

// CategoryFromURL derives a category from path segments of an article link.
func CategoryFromURL(link string) string {
	lower := strings.ToLower(link)
	for _, c := range urlCategories {
		for _, seg := range c.segments {
			if strings.Contains(lower, seg) {
				return c.label
			}
		}
	}
	return RegionalCategory
}
