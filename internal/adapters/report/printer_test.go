package report_test

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/hdlbuild/internal/adapters/report"
	"go.trai.ch/hdlbuild/internal/core/domain"
)

func plainPrinter() (*report.Printer, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return report.New(buf, report.WithProfile(termenv.Ascii)), buf
}

func TestPrinter_Golden(t *testing.T) {
	pkg := domain.NewUnitKey("lib_a", "pkg")
	ieee := domain.NewUnitKey("ieee", "std_logic_1164")

	tests := []struct {
		name  string
		print func(p *report.Printer)
	}{
		{
			name: "records",
			print: func(p *report.Printer) {
				p.Records([]domain.Record{
					{Path: "/p/ent.vhd", Severity: domain.SeverityError, Line: 3, Code: "vcom-1136", Message: `Unknown identifier "foo".`},
					{Path: "/p/top.vhd", Severity: domain.SeverityError, Line: 22, Column: 3, Message: `no declaration for "missing"`},
					{Path: "/p/ent.vhd", Severity: domain.SeverityWarning, Line: 12, Code: "vcom-1246", Message: "Range 7 downto 8 is null."},
				})
			},
		},
		{
			name: "summary_ok",
			print: func(p *report.Printer) {
				p.Summary(report.Summary{Compiled: 2, Cached: 1, Steps: 2, Warnings: 1})
			},
		},
		{
			name: "summary_errors",
			print: func(p *report.Printer) {
				p.Summary(report.Summary{Compiled: 1, Steps: 1, NotBuilt: 2, Errors: 2, Warnings: 0})
			},
		},
		{
			name: "dependency_map",
			print: func(p *report.Printer) {
				p.DependencyMap(map[string][]domain.UnitKey{
					"/p/pkg.vhd": {ieee},
					"/p/ent.vhd": {ieee, pkg},
				})
			},
		},
		{
			name: "reverse_dependency_map",
			print: func(p *report.Printer) {
				p.ReverseDependencyMap(map[domain.UnitKey][]string{
					pkg:  {"/p/top.vhd", "/p/ent.vhd"},
					ieee: {"/p/pkg.vhd"},
				})
			},
		},
		{
			name: "design_units",
			print: func(p *report.Printer) {
				p.DesignUnits([]domain.SourceFile{
					{
						Path:    "/p/pkg.vhd",
						Library: domain.NewName("lib_a"),
						Units: []domain.DesignUnit{
							{Name: domain.NewName("pkg"), Kind: domain.KindPackage},
							{Name: domain.NewName("pkg"), Kind: domain.KindPackageBody},
						},
					},
					{
						Path:     "/p/broken.vhd",
						Library:  domain.NewName("lib_b"),
						ParseErr: domain.ErrNoDesignUnits,
					},
				})
			},
		},
		{
			name: "build_steps",
			print: func(p *report.Printer) {
				p.BuildSteps(
					[][]string{{"/p/pkg.vhd"}, {"/p/ent.vhd", "/p/top.vhd"}},
					[]report.StuckSource{
						{Path: "/p/a.vhd", Missing: []domain.UnitKey{domain.NewUnitKey("lib_a", "b")}},
						{Path: "/p/late.vhd"},
					},
				)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, buf := plainPrinter()
			tt.print(p)

			g := goldie.New(t)
			g.Assert(t, tt.name, buf.Bytes())
		})
	}
}

func TestPrinter_Colors(t *testing.T) {
	buf := &bytes.Buffer{}
	p := report.New(buf, report.WithProfile(termenv.TrueColor))
	p.Records([]domain.Record{{Path: "a.vhd", Severity: domain.SeverityError, Message: "boom"}})

	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "✗ a.vhd: error: boom")
}

func TestPrinter_Empty(t *testing.T) {
	p, buf := plainPrinter()
	p.Records(nil)
	p.DependencyMap(nil)
	p.BuildSteps(nil, nil)
	assert.Empty(t, buf.String())
}
