package rules

// Частые написания производителей из прайсов поставщиков.
func defaultAliases() map[string]string {
	return map[string]string{
		"Moria":                    "moria",
		"MORIA":                    "moria",
		"Moria Surgical":           "moria",
		"Moria SA":                 "moria",
		"Johnson & Johnson":        "johnson-johnson-vision",
		"Johnson & Johnson Vision": "johnson-johnson-vision",
		"J&J Vision":               "johnson-johnson-vision",
		"Acuvue":                   "johnson-johnson-vision",
		"Carl Zeiss Meditec":       "zeiss",
		"Zeiss":                    "zeiss",
		"ZEISS":                    "zeiss",
		"Haag-Streit":              "haag-streit",
		"Haag Streit":              "haag-streit",
		"HS":                       "haag-streit",
		"Keeler":                   "keeler",
		"Keeler Ltd":               "keeler",
		"Oculus":                   "oculus",
		"OCULUS Optikgeräte":       "oculus",
		"Topcon":                   "topcon",
		"Topcon Healthcare":        "topcon",
		"Bausch & Lomb":            "bausch-lomb",
		"Bausch + Lomb":            "bausch-lomb",
		"B&L":                      "bausch-lomb",
		"Alcon":                    "alcon",
		"Alcon Laboratories":       "alcon",
		"Geuder":                   "geuder",
		"Geuder AG":                "geuder",
		"Katena":                   "katena",
		"Katena Products":          "katena",
		"Heine":                    "heine",
		"HEINE Optotechnik":        "heine",
		"Nidek":                    "nidek",
		"NIDEK CO., LTD.":          "nidek",
	}
}

// Существительные и уточнения (fr/en). Составные термины сравниваются целиком.
var defaultDomainTerms = []string{
	// en
	"scissors", "forceps", "tweezers", "needle holder", "speculum", "cannula", "needle",
	"blade", "knife", "keratome", "trephine", "spatula", "retractor", "hook", "chopper",
	"caliper", "marker", "clamp", "punch", "curette", "probe", "dilator",
	"slit lamp", "tonometer", "keratometer", "ophthalmoscope", "retinoscope", "microscope",
	"autorefractor", "lensmeter", "perimeter", "fundus camera", "biometer", "pachymeter",
	"contact lens", "intraocular lens", "lens", "implant", "tray", "sterilization box",
	"curved", "straight", "angled", "serrated", "disposable", "reusable", "sterile",
	"titanium", "stainless steel", "micro",
	// fr
	"ciseaux", "pince", "porte-aiguille", "blépharostat", "canule", "aiguille", "lame",
	"couteau", "kératome", "tréphine", "spatule", "écarteur", "crochet", "compas",
	"marqueur", "lampe à fente", "tonomètre", "kératomètre", "ophtalmoscope",
	"microscope opératoire", "lentille", "lentille de contact", "implant", "plateau",
	"boîte de stérilisation", "courbe", "courbé", "droit", "coudé", "dentelé",
	"usage unique", "réutilisable", "stérile", "titane", "acier inoxydable",
}
