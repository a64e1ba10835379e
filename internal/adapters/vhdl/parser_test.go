package vhdl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hdlbuild/internal/adapters/vhdl"
	"go.trai.ch/hdlbuild/internal/core/domain"
)

func keys(deps []domain.UnitKey) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		out = append(out, d.String())
	}
	return out
}

func unitNames(units []domain.DesignUnit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, string(u.Kind)+" "+u.Name.String())
	}
	return out
}

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantUnits   []string
		wantDeps    []string
		wantPackage bool
	}{
		{
			name: "package with body",
			text: `
library ieee;
use ieee.std_logic_1164.all;

package Pkg is
  constant WIDTH : integer := 8;
end package;

package body pkg is
end package body;
`,
			wantUnits:   []string{"package pkg", "package body pkg"},
			wantDeps:    []string{"ieee.std_logic_1164"},
			wantPackage: true,
		},
		{
			name: "entity using work package and instantiating another library",
			text: `
library ieee, lib_b;
use ieee.std_logic_1164.all;
use work.pkg.all;

entity Ent is
  port (clk : in std_logic);
end entity;

architecture rtl of ent is
begin
  u0 : entity lib_b.core port map (clk => clk);
end architecture;
`,
			wantUnits: []string{"entity ent"},
			wantDeps:  []string{"ieee.std_logic_1164", "lib_b.core", "work.pkg"},
		},
		{
			name: "comments are ignored",
			text: `
-- use work.commented.all;
/* library ghost; use ghost.unit.all; */
entity e is end entity;
`,
			wantUnits: []string{"entity e"},
		},
		{
			name: "use all is dropped",
			text: `
use work.all;
entity e is end entity;
`,
			wantUnits: []string{"entity e"},
		},
		{
			name: "architecture of external entity",
			text: `
architecture rtl of other is
begin
end architecture;
entity local is end entity;
`,
			wantUnits: []string{"entity local"},
			wantDeps:  []string{"work.other"},
		},
		{
			name: "package body of external package",
			text: `
package body shared is
end package body;
`,
			wantUnits: []string{"package body shared"},
			wantDeps:  []string{"work.shared"},
		},
		{
			name: "dependency spanning lines",
			text: `
library lib_a;
entity top is end entity;
architecture a of top is
begin
  u0 : entity lib_a.
       leaf;
end architecture;
`,
			wantUnits: []string{"entity top"},
			wantDeps:  []string{"lib_a.leaf"},
		},
	}

	p := vhdl.NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := p.Parse([]byte(tt.text))
			require.NoError(t, err)

			assert.Equal(t, tt.wantUnits, unitNames(parsed.Units))
			assert.Equal(t, len(tt.wantDeps), len(parsed.Dependencies), keys(parsed.Dependencies))
			if len(tt.wantDeps) > 0 {
				assert.Equal(t, tt.wantDeps, keys(parsed.Dependencies))
			}
			assert.Equal(t, tt.wantPackage, parsed.HasPackage)
		})
	}
}

func TestParser_Parse_Deterministic(t *testing.T) {
	text := []byte(`
library lib_b, lib_c;
use lib_c.z.all;
use lib_b.y.all;
use work.x.all;
entity e is end entity;
`)
	p := vhdl.NewParser()

	first, err := p.Parse(text)
	require.NoError(t, err)
	for range 10 {
		again, err := p.Parse(text)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{
			name:    "no design units",
			text:    "library ieee;\nuse ieee.std_logic_1164.all;\n",
			wantErr: domain.ErrNoDesignUnits,
		},
		{
			name:    "empty file",
			text:    "",
			wantErr: domain.ErrNoDesignUnits,
		},
		{
			name:    "invalid unit name",
			text:    "entity _bad is end entity;",
			wantErr: domain.ErrInvalidIdentifier,
		},
		{
			name:    "invalid library name",
			text:    "library 9lib;\nentity e is end entity;",
			wantErr: domain.ErrInvalidIdentifier,
		},
		{
			name:    "invalid dependency unit",
			text:    "use work._x.all;\nentity e is end entity;",
			wantErr: domain.ErrInvalidIdentifier,
		},
	}

	p := vhdl.NewParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tt.text))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorContains(t, err, domain.ErrParse.Error())
		})
	}
}
