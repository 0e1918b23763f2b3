package lookup

import (
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// AliasFile is the YAML alias document:
//
//	aliases:
//	  "083":
//	    - Annex
//	    - The Annex
type AliasFile struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// LoadAliases reads an alias file.
func LoadAliases(path string) (*AliasFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "lookup: read aliases %s", path)
	}
	var f AliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "lookup: parse aliases %s", path)
	}
	return &f, nil
}

// Resolver maps neighbourhood names to ids. Names are compared after
// NormalizeName. It is read-only once built.
type Resolver struct {
	byName    map[string]string
	conflicts []string
}

// NewResolver builds a resolver from id -> display name pairs and an
// optional alias file. Aliases win over display names. A name claimed by
// two ids resolves to neither and is reported by Conflicts.
func NewResolver(names map[string]string, aliases *AliasFile) *Resolver {
	r := &Resolver{byName: make(map[string]string)}

	display := newLayer()
	for _, id := range sortedKeys(names) {
		display.add(names[id], id)
		display.add(id, id)
	}
	aliased := newLayer()
	if aliases != nil {
		for _, id := range sortedKeys(aliases.Aliases) {
			for _, name := range aliases.Aliases[id] {
				aliased.add(name, id)
			}
		}
	}

	r.conflicts = append(display.conflicts, aliased.conflicts...)
	for k, v := range display.ids {
		r.byName[k] = v
	}
	for k, v := range aliased.ids {
		r.byName[k] = v
	}
	sort.Strings(r.conflicts)
	return r
}

// layer collects normalized names for one source. A name claimed by two
// ids is dropped from the layer.
type layer struct {
	ids       map[string]string
	banned    map[string]bool
	conflicts []string
}

func newLayer() *layer {
	return &layer{ids: make(map[string]string), banned: make(map[string]bool)}
}

func (l *layer) add(name, id string) {
	key := NormalizeName(name)
	if key == "" || l.banned[key] {
		return
	}
	if prev, ok := l.ids[key]; ok && prev != id {
		l.banned[key] = true
		delete(l.ids, key)
		l.conflicts = append(l.conflicts, name)
		return
	}
	l.ids[key] = id
}

// Resolve returns the id for name.
func (r *Resolver) Resolve(name string) (string, bool) {
	id, ok := r.byName[NormalizeName(name)]
	return id, ok
}

// Conflicts lists names that matched more than one id.
func (r *Resolver) Conflicts() []string {
	return r.conflicts
}

// ResolveTable rekeys a name -> value table by id. Names that do not
// resolve are returned sorted.
func (r *Resolver) ResolveTable(table map[string]float64) (map[string]float64, []string) {
	out := make(map[string]float64, len(table))
	var unknown []string
	for _, name := range sortedKeys(table) {
		id, ok := r.Resolve(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if _, dup := out[id]; !dup {
			out[id] = table[name]
		}
	}
	return out, unknown
}

// NormalizeName folds a name for matching: accents removed, lower case,
// punctuation dropped, whitespace collapsed. "St. James Town" and
// "st james-town" both become "st james town".
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'':
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
