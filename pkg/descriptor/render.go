package descriptor

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/densify/pkg/density"
)

// Output formats.
const (
	FormatJSON   = "json"
	FormatModule = "module"
)

// Formats lists the supported output formats.
var Formats = []string{FormatJSON, FormatModule}

// Ext returns the file extension for an output format.
func Ext(format string) string {
	if format == FormatModule {
		return ".js"
	}
	return ".json"
}

// RenderJSON writes d as indented JSON.
func RenderJSON(w io.Writer, d Descriptor) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(d)
}

// ModuleOptions controls ES module output.
type ModuleOptions struct {
	// PublicPathExpr is a JavaScript expression prepended to every URL at
	// runtime, e.g. "__webpack_public_path__". Empty writes URLs as plain
	// string literals.
	PublicPathExpr string
}

// RenderModule writes d as an ES module exporting default, src, width,
// height, srcSet and, when present, markup.
func RenderModule(w io.Writer, d Descriptor, opts ModuleOptions) error {
	url := func(u string) string {
		lit := quote(u)
		if opts.PublicPathExpr == "" {
			return lit
		}
		return opts.PublicPathExpr + " + " + lit
	}

	var b strings.Builder
	if d.HasBase {
		fmt.Fprintf(&b, "export default %s\n", url(d.Src))
		fmt.Fprintf(&b, "export const src = %s\n", url(d.Src))
		fmt.Fprintf(&b, "export const width = %s\n", density.FormatRatio(d.Width))
		fmt.Fprintf(&b, "export const height = %s\n", density.FormatRatio(d.Height))
	}

	if opts.PublicPathExpr == "" {
		fmt.Fprintf(&b, "export const srcSet = %s\n", quote(d.SrcSet))
	} else {
		parts := make([]string, len(d.Candidates))
		for i, c := range d.Candidates {
			parts[i] = "${" + url(c.URL) + "} " + density.FormatRatio(c.Ratio) + "x"
		}
		fmt.Fprintf(&b, "export const srcSet = `%s`\n", strings.Join(parts, ", "))
	}

	if d.Markup != "" {
		fmt.Fprintf(&b, "export const markup = %s\n", quote(d.Markup))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// quote renders s as a JavaScript string literal. JSON string syntax is a
// subset of JavaScript's.
func quote(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}
