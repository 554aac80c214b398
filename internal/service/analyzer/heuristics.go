package analyzer

import (
	"net"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Predicate is a pluggable yes/no text heuristic. The defaults are word
// lists and regular expressions; any classifier with this shape can replace them.
type Predicate func(string) bool

// Heuristics groups the string predicates used by the analyzers
type Heuristics struct {
	IsVagueHeading       Predicate
	IsGenericAnchor      Predicate
	HasRedundantAltStart Predicate
	IsGenericFilename    Predicate
	IsSpamDomain         Predicate
	IsAuthorityDomain    Predicate
	IsURLShortener       Predicate
	LooksLikeEmbedText   Predicate
}

var (
	sectionPattern  = regexp.MustCompile(`^(section|chapter|part|step|page)\s*\d+$`)
	digitRunPattern = regexp.MustCompile(`\d{4,}`)
	randomLabel     = regexp.MustCompile(`^[a-z0-9]{15,}$`)
	hasDigit        = regexp.MustCompile(`\d`)
	hasLetter       = regexp.MustCompile(`[a-z]`)
)

// NewHeuristics builds the default list-based predicates from settings
func NewHeuristics(s Settings) Heuristics {
	vague := toSet(s.Heading.VagueWords)
	generic := toSet(s.Link.GenericAnchors)

	filenamePatterns := make([]*regexp.Regexp, 0, len(s.Image.GenericFilenames))
	for _, p := range s.Image.GenericFilenames {
		if re, err := regexp.Compile(p); err == nil {
			filenamePatterns = append(filenamePatterns, re)
		}
	}

	prefixes := append([]string(nil), s.Image.RedundantPrefixes...)
	spamTLDs := append([]string(nil), s.Link.SpamTLDs...)
	authorities := append([]string(nil), s.Link.AuthorityDomains...)
	shorteners := toSet(s.Link.URLShorteners)

	return Heuristics{
		IsVagueHeading: func(t string) bool {
			t = normalizePhrase(t)
			if _, ok := vague[t]; ok {
				return true
			}
			return sectionPattern.MatchString(t)
		},
		IsGenericAnchor: func(t string) bool {
			_, ok := generic[normalizePhrase(t)]
			return ok
		},
		HasRedundantAltStart: func(alt string) bool {
			alt = normalizePhrase(alt)
			for _, p := range prefixes {
				if alt == p || strings.HasPrefix(alt, p+" ") {
					return true
				}
			}
			return false
		},
		IsGenericFilename: func(name string) bool {
			name = strings.ToLower(name)
			if len(name) <= 3 {
				return true
			}
			for _, re := range filenamePatterns {
				if re.MatchString(name) {
					return true
				}
			}
			return false
		},
		IsSpamDomain: func(host string) bool {
			host = strings.ToLower(host)
			for _, tld := range spamTLDs {
				if strings.HasSuffix(host, tld) {
					return true
				}
			}
			if digitRunPattern.MatchString(host) {
				return true
			}
			for _, label := range strings.Split(host, ".") {
				if randomLabel.MatchString(label) && hasDigit.MatchString(label) && hasLetter.MatchString(label) {
					return true
				}
			}
			return false
		},
		IsAuthorityDomain: func(host string) bool {
			host = strings.TrimPrefix(strings.ToLower(host), "www.")
			if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") ||
				strings.Contains(host, ".gov.") || strings.Contains(host, ".ac.") {
				return true
			}
			for _, d := range authorities {
				if host == d || strings.HasSuffix(host, "."+d) {
					return true
				}
			}
			return false
		},
		IsURLShortener: func(host string) bool {
			_, ok := shorteners[strings.TrimPrefix(strings.ToLower(host), "www.")]
			return ok
		},
		LooksLikeEmbedText: func(alt string) bool {
			words := strings.Fields(alt)
			if len(words) > 20 {
				return true
			}
			letters, upper := 0, 0
			for _, r := range alt {
				if r >= 'a' && r <= 'z' {
					letters++
				} else if r >= 'A' && r <= 'Z' {
					letters++
					upper++
				}
			}
			return len(words) > 3 && letters > 0 && upper == letters
		},
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[normalizePhrase(it)] = struct{}{}
	}
	return set
}

// normalizePhrase lowercases, trims punctuation at both ends and collapses spaces
func normalizePhrase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Trim(s, ".,:;!?-–—()[]\"'… ")
	return strings.Join(strings.Fields(s), " ")
}

// hostOf returns the lowercase host of a URL, or "" for relative URLs
func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// isIPHost reports whether host is an IP literal
func isIPHost(host string) bool {
	return host != "" && net.ParseIP(host) != nil
}

// fileNameOf returns the base file name of src without extension, and the lowercase extension
func fileNameOf(src string) (string, string) {
	if strings.HasPrefix(src, "data:") {
		return "", dataURIFormat(src)
	}
	p := src
	if u, err := url.Parse(src); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return "", ""
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(base), "."))
	return strings.TrimSuffix(base, path.Ext(base)), ext
}

func dataURIFormat(src string) string {
	// data:image/png;base64,...
	rest := strings.TrimPrefix(src, "data:image/")
	if rest == src {
		return ""
	}
	if i := strings.IndexAny(rest, ";,"); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.ToLower(rest)
	if rest == "svg+xml" {
		return "svg"
	}
	return rest
}
