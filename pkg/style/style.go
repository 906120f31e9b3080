// Package style produces the per-instance stylesheet of a widget: the widget's
// LESS template with instance variables substituted, wrapped in the scope
// selector of the instance and compiled to CSS.
package style

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-widgets/pkg/less"
	"github.com/goliatone/go-widgets/pkg/schema"
)

// MixinsImport is the statement in style templates that pulls in the shared
// mixins library.
const MixinsImport = `@import "../base/less/mixins";`

// ErrStyleNotFound is returned when the widget has no template for a style.
var ErrStyleNotFound = errors.New("style: template not found")

// Generator compiles widget style templates. Styles holds `{style}.less`
// files; Mixins is the source inlined in place of MixinsImport.
type Generator struct {
	Styles   fs.FS
	Mixins   string
	Compiler *less.Compiler
}

// New returns a Generator reading templates from styles.
func New(styles fs.FS, mixins string) *Generator {
	return &Generator{Styles: styles, Mixins: mixins, Compiler: less.New()}
}

// Source returns the LESS document for one instance before compilation.
func (g *Generator) Source(style, cssName string, vars map[string]string) (string, error) {
	if g == nil || g.Styles == nil {
		return "", fmt.Errorf("style: %s: %w", style, ErrStyleNotFound)
	}
	raw, err := fs.ReadFile(g.Styles, style+".less")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("style: %s: %w", style, ErrStyleNotFound)
		}
		return "", fmt.Errorf("style: read %s: %w", style, err)
	}
	src := SubstituteVariables(string(raw), vars)
	src = strings.ReplaceAll(src, MixinsImport, g.Mixins)
	return Wrap(cssName, src), nil
}

// CSS compiles the stylesheet for one instance. An empty style name yields
// no CSS.
func (g *Generator) CSS(style, cssName string, vars map[string]string) (string, error) {
	if style == "" {
		return "", nil
	}
	src, err := g.Source(style, cssName, vars)
	if err != nil {
		return "", err
	}
	compiler := g.Compiler
	if compiler == nil {
		compiler = less.New()
	}
	css, err := compiler.Compile(src)
	if err != nil {
		return "", fmt.Errorf("style: compile %s: %w", style, err)
	}
	return css, nil
}

// Wrap scopes src under the instance selector.
func Wrap(cssName, src string) string {
	return ".so-widget-" + cssName + " { " + src + " } "
}

// SubstituteVariables rewrites `@name: ...;` declarations in src to carry
// the instance values. Empty values keep the template default.
func SubstituteVariables(src string, vars map[string]string) string {
	for _, name := range sortedKeys(vars) {
		value := vars[name]
		if schema.Empty(value) {
			continue
		}
		pattern := regexp.MustCompile(`@` + regexp.QuoteMeta(name) + ` *:.*?;`)
		src = pattern.ReplaceAllLiteralString(src, "@"+name+": "+value+";")
	}
	return src
}

// CSSName is the scope class suffix and cache file stem of an instance.
func CSSName(idBase, style, hash string) string {
	return idBase + "-" + style + "-" + hash
}

// BaseName is the scope class suffix of a styleless widget.
func BaseName(idBase string) string {
	return idBase + "-base"
}

// Hash fingerprints a variable map: the first 12 hex characters of the MD5
// of its serialised form. Equal maps hash equally regardless of insertion
// order.
func Hash(vars map[string]string) string {
	sum := md5.Sum([]byte(serialize(vars)))
	return hex.EncodeToString(sum[:])[:12]
}

// serialize writes vars in the PHP serialize() layout with sorted keys, so
// hashes stay stable against files written by earlier deployments.
func serialize(vars map[string]string) string {
	var b strings.Builder
	b.WriteString("a:")
	b.WriteString(strconv.Itoa(len(vars)))
	b.WriteString(":{")
	for _, key := range sortedKeys(vars) {
		writeSerializedString(&b, key)
		writeSerializedString(&b, vars[key])
	}
	b.WriteString("}")
	return b.String()
}

func writeSerializedString(b *strings.Builder, s string) {
	b.WriteString("s:")
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteString(`:"`)
	b.WriteString(s)
	b.WriteString(`";`)
}

func sortedKeys(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
