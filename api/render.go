package api

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Domenick1991/bookingadmin/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

func loadTemplates() *template.Template {
	return template.Must(template.New("").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.tmpl"))
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"value": domain.Value,
		"orNA": func(s *string) string {
			if v := domain.Value(s); v != "" {
				return v
			}
			return "N/A"
		},
		"initial": func(s *string) string {
			r, _ := utf8.DecodeRuneInString(strings.TrimSpace(domain.Value(s)))
			if r == utf8.RuneError {
				return "?"
			}
			return string(unicode.ToUpper(r))
		},
		"money": func(v any) string {
			var f float64
			switch n := v.(type) {
			case domain.Amount:
				f = float64(n)
			case float64:
				f = n
			}
			return formatMoney(f)
		},
		"date": func(t time.Time) string {
			return t.Local().Format("02 Jan 2006")
		},
		"clock": func(t time.Time) string {
			return t.Local().Format("15:04")
		},
	}
}

// formatMoney renders rupees with thousands separators, dropping zero paise.
func formatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	s := fmt.Sprintf("%.2f", v)
	whole, frac := s[:len(s)-3], s[len(s)-2:]

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if frac != "00" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return "₹" + out
}
