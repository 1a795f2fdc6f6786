package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/densify/pkg/errors"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 4), G: 40, B: uint8(y * 4), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	return root.Execute()
}

func TestProcessCommand(t *testing.T) {
	chdir(t, t.TempDir())
	writePNG(t, "logo@2x.png", 40, 20)

	err := execute(t, "process", "logo@2x.png",
		"-o", "out", "--public-path", "/img/", "--no-cache", "--markup", "--attr", "alt=Logo")
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	data, err := os.ReadFile(filepath.Join("out", "logo@2x.json"))
	if err != nil {
		t.Fatalf("descriptor not written: %v", err)
	}
	var d struct {
		Src    string  `json:"src"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
		SrcSet string  `json:"srcSet"`
		Markup string  `json:"markup"`
	}
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatalf("descriptor json: %v", err)
	}

	if d.Width != 20 || d.Height != 10 {
		t.Errorf("base = %vx%v, want 20x10", d.Width, d.Height)
	}
	if !strings.HasPrefix(d.Src, "/img/") || !strings.HasSuffix(d.Src, "-1.png") {
		t.Errorf("src = %q", d.Src)
	}
	if !strings.Contains(d.Markup, `alt="Logo"`) {
		t.Errorf("markup = %q, want alt attribute", d.Markup)
	}

	entries, err := os.ReadDir("out")
	if err != nil {
		t.Fatal(err)
	}
	var pngs []string
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".png" {
			pngs = append(pngs, strings.TrimPrefix(e.Name()[strings.LastIndex(e.Name(), "-"):], "-"))
		}
	}
	if diff := cmp.Diff([]string{"1.png", "2.png"}, pngs); diff != "" {
		t.Errorf("emitted variants mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessCommandModuleFormat(t *testing.T) {
	chdir(t, t.TempDir())
	writePNG(t, "icon.png", 8, 8)

	if err := execute(t, "process", "icon.png", "-o", "out", "-f", "module", "--no-cache"); err != nil {
		t.Fatalf("process: %v", err)
	}

	data, err := os.ReadFile(filepath.Join("out", "icon.js"))
	if err != nil {
		t.Fatalf("module not written: %v", err)
	}
	if !strings.Contains(string(data), "export default") {
		t.Errorf("module = %q", data)
	}
}

func TestProcessCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode errors.Code
	}{
		{"unknown option", []string{"--option", "imageElement"}, errors.ErrCodeInvalidConfig},
		{"bad attribute", []string{"--attr", "on click=x"}, errors.ErrCodeInvalidConfig},
		{"bad format", []string{"-f", "xml"}, errors.ErrCodeInvalidConfig},
		{"bad hash", []string{"--hash", "md5"}, errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			writePNG(t, "a.png", 4, 4)

			args := append([]string{"process", "a.png", "-o", "out", "--no-cache"}, tt.args...)
			err := execute(t, args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %q, want %q (err %v)", got, tt.wantCode, err)
			}
			if _, statErr := os.Stat(filepath.Join("out", "a.json")); statErr == nil {
				t.Error("descriptor should not be written")
			}
		})
	}
}

func TestProcessCommandDecodeError(t *testing.T) {
	chdir(t, t.TempDir())
	if err := os.WriteFile("broken.png", []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := execute(t, "process", "broken.png", "-o", "out", "--no-cache")
	if !errors.Is(err, errors.ErrCodeDecode) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeDecode)
	}
}

func TestParseAttrs(t *testing.T) {
	got, err := parseAttrs([]string{"alt=Logo", "data-x=a=b", "loading="})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"alt": "Logo", "data-x": "a=b", "loading": ""}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("parseAttrs mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"alt", "=x"} {
		if _, err := parseAttrs([]string{bad}); err == nil {
			t.Errorf("parseAttrs(%q) should fail", bad)
		}
	}
}

func TestSettingsMarkupPrecedence(t *testing.T) {
	chdir(t, t.TempDir())
	if err := os.WriteFile("densify.toml", []byte("[loader]\ninclude_markup = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want bool
	}{
		{"file", nil, true},
		{"option overrides file", []string{"--option", "includeMarkup=false"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flags settingsFlags
			cmd := &cobra.Command{Use: "x"}
			flags.register(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}

			s, err := flags.load(cmd)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if s.loader.IncludeMarkup != tt.want {
				t.Errorf("IncludeMarkup = %v, want %v", s.loader.IncludeMarkup, tt.want)
			}
		})
	}
}
