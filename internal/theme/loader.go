// internal/theme/loader.go
package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/gdamore/tcell/v2"
)

// TomlStyleDef represents a single terminal style definition in the TOML file
type TomlStyleDef struct {
	Fg        *string `toml:"fg"` // Use pointers to detect missing values
	Bg        *string `toml:"bg"`
	Bold      *bool   `toml:"bold"`
	Italic    *bool   `toml:"italic"`
	Underline *bool   `toml:"underline"`
	Reverse   *bool   `toml:"reverse"`
}

// TomlTheme is an override file for one of the supported themes.
//
//	theme = "dark"
//	name = "Midnight"
//	css_file = "midnight.css"
//	chroma_style = "dracula"
//	[styles.keyword]
//	fg = "#ff79c6"
type TomlTheme struct {
	Theme            string                  `toml:"theme"`
	Name             string                  `toml:"name"`
	IsDark           *bool                   `toml:"is_dark"`
	CSS              string                  `toml:"css"`
	CSSFile          string                  `toml:"css_file"`
	HighlightCSS     string                  `toml:"highlight_css"`
	HighlightCSSFile string                  `toml:"highlight_css_file"`
	ChromaStyle      string                  `toml:"chroma_style"`
	Styles           map[string]TomlStyleDef `toml:"styles"`
}

// decodeThemeFile parses an override file and resolves the theme it targets.
// The file name stands in for a missing theme key.
func decodeThemeFile(filePath string) (*TomlTheme, ID, error) {
	var tt TomlTheme
	metadata, err := toml.DecodeFile(filePath, &tt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse TOML theme file '%s': %w", filePath, err)
	}
	if len(metadata.Undecoded()) > 0 {
		logger.Warnf("Theme file '%s': Unrecognized keys: %v", filePath, metadata.Undecoded())
	}

	if tt.Theme == "" {
		tt.Theme = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}
	id, err := ParseID(tt.Theme)
	if err != nil {
		return nil, "", fmt.Errorf("theme file '%s': %w", filePath, err)
	}
	return &tt, id, nil
}

// LoadThemeFromFile parses an override file and applies it on top of base.
// base is not modified; the merged theme is returned.
func LoadThemeFromFile(filePath string, base *Theme) (*Theme, error) {
	tt, id, err := decodeThemeFile(filePath)
	if err != nil {
		return nil, err
	}
	if base == nil || base.ID != id {
		return nil, fmt.Errorf("theme file '%s': no base theme for '%s'", filePath, id)
	}
	return tt.apply(base, filepath.Dir(filePath))
}

// apply merges the override onto base. Relative stylesheet paths resolve
// against dir.
func (tt *TomlTheme) apply(base *Theme, dir string) (*Theme, error) {
	merged := *base
	merged.Styles = make(map[string]tcell.Style, len(base.Styles))
	for k, v := range base.Styles {
		merged.Styles[k] = v
	}

	if tt.Name != "" {
		merged.Name = tt.Name
	}
	if tt.IsDark != nil {
		merged.IsDark = *tt.IsDark
	}
	if tt.ChromaStyle != "" {
		merged.ChromaStyle = tt.ChromaStyle
	}

	if css, err := inlineOrFile(tt.CSS, tt.CSSFile, dir); err != nil {
		return nil, err
	} else if css != "" {
		merged.Style = css
	}
	if css, err := inlineOrFile(tt.HighlightCSS, tt.HighlightCSSFile, dir); err != nil {
		return nil, err
	} else if css != "" {
		merged.Highlight = css
	}

	baseStyle := merged.GetStyle("Default")
	if def, ok := tt.Styles["Default"]; ok {
		if s, err := convertTomlStyle(def, baseStyle); err != nil {
			logger.Warnf("Theme '%s': Failed to parse 'Default' style: %v", merged.Name, err)
		} else {
			baseStyle = s
			merged.Styles["Default"] = s
		}
	}
	for name, def := range tt.Styles {
		if name == "Default" {
			continue
		}
		style, err := convertTomlStyle(def, baseStyle)
		if err != nil {
			logger.Warnf("Theme '%s': Failed to parse style '%s', skipping: %v", merged.Name, name, err)
			continue
		}
		merged.Styles[name] = style
	}

	return &merged, nil
}

// inlineOrFile prefers inline CSS, then a file relative to dir.
func inlineOrFile(inline, file, dir string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if file == "" {
		return "", nil
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(dir, file)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read stylesheet '%s': %w", file, err)
	}
	return string(data), nil
}

// convertTomlStyle converts the TOML definition to a tcell.Style, inheriting from a base
func convertTomlStyle(ts TomlStyleDef, baseStyle tcell.Style) (tcell.Style, error) {
	style := baseStyle

	if ts.Fg != nil {
		color, err := parseColorString(*ts.Fg)
		if err != nil {
			return style, fmt.Errorf("invalid foreground color '%s': %w", *ts.Fg, err)
		}
		style = style.Foreground(color)
	}
	if ts.Bg != nil {
		color, err := parseColorString(*ts.Bg)
		if err != nil {
			return style, fmt.Errorf("invalid background color '%s': %w", *ts.Bg, err)
		}
		style = style.Background(color)
	}

	if ts.Bold != nil {
		style = style.Bold(*ts.Bold)
	}
	if ts.Italic != nil {
		style = style.Italic(*ts.Italic)
	}
	if ts.Underline != nil {
		style = style.Underline(*ts.Underline)
	}
	if ts.Reverse != nil {
		style = style.Reverse(*ts.Reverse)
	}

	return style, nil
}

// parseColorString converts #RRGGBB, "reset" or "default" to a tcell.Color
func parseColorString(s string) (tcell.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "reset":
		return tcell.ColorReset, nil
	case "default":
		return tcell.ColorDefault, nil
	}
	if !strings.HasPrefix(s, "#") || len(s) != 7 {
		return tcell.ColorDefault, fmt.Errorf("invalid color format '%s', must be #RRGGBB", s)
	}
	val, err := strconv.ParseInt(s[1:], 16, 32)
	if err != nil {
		return tcell.ColorDefault, fmt.Errorf("invalid hex value '%s': %w", s, err)
	}
	return tcell.NewHexColor(int32(val)), nil
}
