package weather

type Condition struct {
	Description string
	Icon        string
}

// WMO weather interpretation codes.
var conditions = map[int]Condition{
	0:  {"Céu limpo", "☀️"},
	1:  {"Principalmente limpo", "🌤️"},
	2:  {"Parcialmente nublado", "⛅"},
	3:  {"Nublado", "☁️"},
	45: {"Neblina", "🌫️"},
	48: {"Neblina com geada", "🌫️"},
	51: {"Garoa leve", "🌧️"},
	53: {"Garoa moderada", "🌧️"},
	55: {"Garoa forte", "🌧️"},
	61: {"Chuva leve", "🌧️"},
	63: {"Chuva moderada", "🌧️"},
	65: {"Chuva forte", "🌧️"},
	66: {"Chuva congelante leve", "🌨️"},
	67: {"Chuva congelante forte", "🌨️"},
	71: {"Neve leve", "❄️"},
	73: {"Neve moderada", "❄️"},
	75: {"Neve forte", "❄️"},
	77: {"Grãos de neve", "❄️"},
	80: {"Pancadas de chuva leves", "🌦️"},
	81: {"Pancadas de chuva moderadas", "🌦️"},
	82: {"Pancadas de chuva fortes", "⛈️"},
	85: {"Neve leve", "🌨️"},
	86: {"Neve forte", "🌨️"},
	95: {"Tempestade", "⛈️"},
	96: {"Tempestade com granizo leve", "⛈️"},
	99: {"Tempestade com granizo forte", "⛈️"},
}

var unknown = Condition{"Desconhecido", "❓"}

func Describe(code int) Condition {
	if c, ok := conditions[code]; ok {
		return c
	}
	return unknown
}
