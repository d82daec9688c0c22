package document

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed layout.yaml
var defaultLayoutYAML []byte

// Panel field sources.
const (
	SourceName        = "name"
	SourceCURP        = "curp"
	SourceRFC         = "rfc"
	SourceDepartment  = "department"
	SourceBuilding    = "building"
	SourceWorkstation = "workstation"
	SourceFloor       = "floor"
	SourceDate        = "date"
	SourceItemCount   = "item_count"
)

// Table column sources.
const (
	SourceIndex       = "index"
	SourceRegistry    = "registry"
	SourceInventory   = "inventory"
	SourceDescription = "description"
	SourceValue       = "value"
	SourceObservation = "observation"
)

// Layout describes where and how every part of a voucher is drawn.
type Layout struct {
	Page       PageLayout       `yaml:"page"`
	Header     HeaderLayout     `yaml:"header"`
	Footer     FooterLayout     `yaml:"footer"`
	Title      string           `yaml:"title"`
	Panel      PanelLayout      `yaml:"panel"`
	Table      TableLayout      `yaml:"table"`
	Conditions ConditionsLayout `yaml:"conditions"`
	Signatures SignatureLayout  `yaml:"signatures"`
}

type PageLayout struct {
	MarginLeft  float64 `yaml:"margin_left"`
	MarginTop   float64 `yaml:"margin_top"`
	MarginRight float64 `yaml:"margin_right"`
	BreakMargin float64 `yaml:"break_margin"`
	RowBreakAt  float64 `yaml:"row_break_at"` // a new page starts once the cursor passes this y
	DateFormat  string  `yaml:"date_format"`
}

type HeaderLayout struct {
	Asset         string  `yaml:"asset"`
	X             float64 `yaml:"x"`
	Y             float64 `yaml:"y"`
	Width         float64 `yaml:"width"`
	FallbackTitle string  `yaml:"fallback_title"`
	Spacing       float64 `yaml:"spacing"`
}

type FooterLayout struct {
	Asset         string   `yaml:"asset"`
	X             float64  `yaml:"x"`
	FromBottom    float64  `yaml:"from_bottom"`
	Width         float64  `yaml:"width"`
	FallbackLines []string `yaml:"fallback_lines"`
	PageLabel     string   `yaml:"page_label"`
}

type PanelLayout struct {
	Title    string       `yaml:"title"`
	Height   float64      `yaml:"height"`
	DividerX float64      `yaml:"divider_x"`
	Fields   []PanelField `yaml:"fields"`
}

// PanelField is one label/value pair of the responsible-party panel.
type PanelField struct {
	Label      string  `yaml:"label"`
	Source     string  `yaml:"source"`
	X          float64 `yaml:"x"`
	Offset     float64 `yaml:"offset"` // from the top of the panel
	LabelWidth float64 `yaml:"label_width"`
	ValueWidth float64 `yaml:"value_width"`
	Default    string  `yaml:"default"`
	WrapOver   int     `yaml:"wrap_over"` // split onto two lines when longer
	TextRule   `yaml:",inline"`
}

type TableLayout struct {
	Title              string        `yaml:"title"`
	HeaderHeight       float64       `yaml:"header_height"`
	RowHeight          float64       `yaml:"row_height"`
	TotalLabel         string        `yaml:"total_label"`
	PendingObservation string        `yaml:"pending_observation"`
	Columns            []TableColumn `yaml:"columns"`
}

type TableColumn struct {
	Header   string  `yaml:"header"`
	Source   string  `yaml:"source"`
	Width    float64 `yaml:"width"`
	Align    string  `yaml:"align"`
	TextRule `yaml:",inline"`
}

type ConditionsLayout struct {
	Title      string   `yaml:"title"`
	LineHeight float64  `yaml:"line_height"`
	Lines      []string `yaml:"lines"`
}

type SignatureLayout struct {
	Title       string         `yaml:"title"`
	Height      float64        `yaml:"height"`
	Responsible SignatureParty `yaml:"responsible"`
	Authorizing SignatureParty `yaml:"authorizing"`
}

type SignatureParty struct {
	Heading  string `yaml:"heading"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	TextRule `yaml:",inline"`
}

// DefaultLayout returns a fresh copy of the built-in layout.
func DefaultLayout() *Layout {
	l, err := ParseLayout(defaultLayoutYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded layout is invalid: %v", err))
	}
	return l
}

// LoadLayout reads a YAML layout file. Keys missing from the file keep their
// default value. An empty path yields the default layout.
func LoadLayout(path string) (*Layout, error) {
	if path == "" {
		return DefaultLayout(), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseLayoutFromReader(file)
}

// ParseLayoutFromReader parses a layout from an io.Reader over the defaults.
func ParseLayoutFromReader(r io.Reader) (*Layout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	l := DefaultLayout()
	if err := yaml.Unmarshal(data, l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// ParseLayout parses a complete layout document.
func ParseLayout(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Overrides replaces the site-specific parts of a layout. Empty fields keep
// the layout value.
type Overrides struct {
	HeaderAsset     string
	FooterAsset     string
	AuthorizingName string
	AuthorizingRole string
}

// Apply sets every non-empty override on l.
func (l *Layout) Apply(o Overrides) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&l.Header.Asset, o.HeaderAsset)
	set(&l.Footer.Asset, o.FooterAsset)
	set(&l.Signatures.Authorizing.Name, o.AuthorizingName)
	set(&l.Signatures.Authorizing.Role, o.AuthorizingRole)
}

// Validate checks the parts of a layout the renderer relies on.
func (l *Layout) Validate() error {
	if len(l.Table.Columns) == 0 {
		return errors.New("layout: table has no columns")
	}
	if l.valueColumn() < 0 {
		return errors.New("layout: table has no value column")
	}
	for _, c := range l.Table.Columns {
		if c.Width <= 0 {
			return fmt.Errorf("layout: column %q has no width", c.Header)
		}
	}
	if l.Table.RowHeight <= 0 || l.Table.HeaderHeight <= 0 {
		return errors.New("layout: table row heights must be positive")
	}
	if l.Page.RowBreakAt <= 0 {
		return errors.New("layout: row_break_at must be positive")
	}
	return nil
}

func (l *Layout) valueColumn() int {
	for i, c := range l.Table.Columns {
		if c.Source == SourceValue {
			return i
		}
	}
	return -1
}
