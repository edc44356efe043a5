package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"catalog-recon/internal/fileio"
)

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func toBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// mappingFromForm: дефолтный маппинг с переопределениями из формы.
// title_<lang> / description_<lang> задают колонку для конкретного языка.
func mappingFromForm(r *http.Request) fileio.Mapping {
	m := fileio.DefaultMapping()
	if v := strings.TrimSpace(r.FormValue("manufacturer")); v != "" {
		m.Manufacturer = v
	}
	if v := strings.TrimSpace(r.FormValue("reference")); v != "" {
		m.Reference = v
	}
	if langs := splitList(r.FormValue("languages")); len(langs) > 0 {
		m.Languages = langs
	}
	m.Title = map[string]string{}
	m.Description = map[string]string{}
	for _, l := range m.Languages {
		if v := strings.TrimSpace(r.FormValue("title_" + l)); v != "" {
			m.Title[l] = v
		}
		if v := strings.TrimSpace(r.FormValue("description_" + l)); v != "" {
			m.Description[l] = v
		}
	}
	return m
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
