package registry_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hdlbuild/internal/core/domain"
	"go.trai.ch/hdlbuild/internal/engine/registry"
)

func parsedUnits(units ...string) domain.ParsedSource {
	var p domain.ParsedSource
	for _, u := range units {
		p.Units = append(p.Units, domain.DesignUnit{Name: domain.NewName(u), Kind: domain.KindEntity})
	}
	return p
}

func TestRegistry_AddAndOwner(t *testing.T) {
	r := registry.New()
	libA := domain.NewName("lib_a")
	r.Add("/p/pkg.vhd", libA, []string{"-93"})
	r.Add("/p/ent.vhd", libA, nil)

	now := time.Now()
	require.NoError(t, r.Apply("/p/pkg.vhd", parsedUnits("pkg"), now, nil))
	require.NoError(t, r.Apply("/p/ent.vhd", parsedUnits("ent"), now, nil))

	owner, ok := r.Owner(domain.NewUnitKey("lib_a", "pkg"))
	require.True(t, ok)
	assert.Equal(t, "/p/pkg.vhd", owner)

	_, ok = r.Owner(domain.NewUnitKey("lib_b", "pkg"))
	assert.False(t, ok)

	assert.Equal(t, []string{"/p/ent.vhd", "/p/pkg.vhd"}, r.Paths())
	assert.Equal(t, []domain.Name{libA}, r.Libraries())
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_DuplicateUnit(t *testing.T) {
	r := registry.New()
	lib := domain.NewName("lib")
	r.Add("/p/a.vhd", lib, nil)
	r.Add("/p/b.vhd", lib, nil)

	require.NoError(t, r.Apply("/p/a.vhd", parsedUnits("dup"), time.Now(), nil))
	err := r.Apply("/p/b.vhd", parsedUnits("dup"), time.Now(), nil)

	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrDuplicateDesignUnit.Error())

	owner, _ := r.Owner(domain.NewUnitKey("lib", "dup"))
	assert.Equal(t, "/p/a.vhd", owner)
}

func TestRegistry_ConflictsPersistUntilResolved(t *testing.T) {
	r := registry.New()
	lib := domain.NewName("lib")
	r.Add("/p/a.vhd", lib, nil)
	r.Add("/p/b.vhd", lib, nil)
	t0 := time.Unix(1000, 0)

	require.NoError(t, r.Conflicts())
	require.NoError(t, r.Apply("/p/a.vhd", parsedUnits("dup"), t0, nil))
	require.Error(t, r.Apply("/p/b.vhd", parsedUnits("dup"), t0, nil))

	for range 2 {
		err := r.Conflicts()
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrDuplicateDesignUnit.Error())
	}

	// b.vhd is renamed to another unit; a.vhd is the only owner again.
	require.NoError(t, r.Apply("/p/b.vhd", parsedUnits("other"), t0.Add(time.Second), nil))
	require.NoError(t, r.Conflicts())
	owner, _ := r.Owner(domain.NewUnitKey("lib", "dup"))
	assert.Equal(t, "/p/a.vhd", owner)
}

func TestRegistry_PackageBodyIsNotAnOwner(t *testing.T) {
	r := registry.New()
	lib := domain.NewName("lib")
	r.Add("/p/pkg.vhd", lib, nil)
	r.Add("/p/pkg_body.vhd", lib, nil)

	pkg := domain.ParsedSource{Units: []domain.DesignUnit{{Name: domain.NewName("pkg"), Kind: domain.KindPackage}}, HasPackage: true}
	body := domain.ParsedSource{
		Units:        []domain.DesignUnit{{Name: domain.NewName("pkg"), Kind: domain.KindPackageBody}},
		Dependencies: []domain.UnitKey{domain.NewUnitKey("work", "pkg")},
	}
	require.NoError(t, r.Apply("/p/pkg.vhd", pkg, time.Now(), nil))
	require.NoError(t, r.Apply("/p/pkg_body.vhd", body, time.Now(), nil))

	require.NoError(t, r.Conflicts())
	owner, _ := r.Owner(domain.NewUnitKey("lib", "pkg"))
	assert.Equal(t, "/p/pkg.vhd", owner)
}

func TestRegistry_ParseErrorDropsOwnership(t *testing.T) {
	r := registry.New()
	r.Add("/p/a.vhd", domain.NewName("lib"), nil)

	require.NoError(t, r.Apply("/p/a.vhd", parsedUnits("a"), time.Now(), nil))
	require.NoError(t, r.Apply("/p/a.vhd", domain.ParsedSource{}, time.Now(), errors.New("broken")))

	_, ok := r.Owner(domain.NewUnitKey("lib", "a"))
	assert.False(t, ok)

	src, _ := r.Get("/p/a.vhd")
	assert.False(t, src.Parsed())
	assert.Error(t, src.ParseErr)
}

func TestRegistry_Stale(t *testing.T) {
	r := registry.New()
	r.Add("/p/a.vhd", domain.NewName("lib"), nil)

	t0 := time.Unix(1000, 0)
	assert.True(t, r.Stale("/p/a.vhd", t0), "never parsed")

	require.NoError(t, r.Apply("/p/a.vhd", parsedUnits("a"), t0, nil))
	assert.False(t, r.Stale("/p/a.vhd", t0))
	assert.True(t, r.Stale("/p/a.vhd", t0.Add(time.Second)))
	assert.False(t, r.Stale("/p/unknown.vhd", t0))
}

func TestRegistry_LibraryChangeResetsParse(t *testing.T) {
	r := registry.New()
	r.Add("/p/a.vhd", domain.NewName("lib_a"), nil)
	require.NoError(t, r.Apply("/p/a.vhd", parsedUnits("a"), time.Now(), nil))

	src := r.Add("/p/a.vhd", domain.NewName("lib_b"), []string{"-2008"})

	assert.False(t, src.Parsed())
	assert.Equal(t, []string{"-2008"}, src.Flags)
	_, ok := r.Owner(domain.NewUnitKey("lib_a", "a"))
	assert.False(t, ok)
}

func TestRegistry_SnapshotRestore(t *testing.T) {
	lib := domain.NewName("lib")
	mtime := time.Unix(2000, 0).UTC()

	r := registry.New()
	r.Add("/p/a.vhd", lib, nil)
	r.Add("/p/b.vhd", lib, nil)
	require.NoError(t, r.Apply("/p/a.vhd", parsedUnits("a"), mtime, nil))

	snaps := r.Snapshot()
	require.Len(t, snaps, 1, "unparsed sources are not persisted")

	restored := registry.New()
	restored.Add("/p/a.vhd", lib, nil)
	require.NoError(t, restored.Restore(snaps))

	src, ok := restored.Get("/p/a.vhd")
	require.True(t, ok)
	assert.True(t, src.Parsed())
	assert.Equal(t, mtime, src.ParsedMtime)
	owner, _ := restored.Owner(domain.NewUnitKey("lib", "a"))
	assert.Equal(t, "/p/a.vhd", owner)

	other := registry.New()
	other.Add("/p/a.vhd", domain.NewName("other"), nil)
	require.NoError(t, other.Restore(snaps))
	src, _ = other.Get("/p/a.vhd")
	assert.False(t, src.Parsed(), "snapshot for another library is ignored")
}

func TestRegistry_Remove(t *testing.T) {
	r := registry.New()
	r.Add("/p/a.vhd", domain.NewName("lib"), nil)
	require.NoError(t, r.Apply("/p/a.vhd", parsedUnits("a"), time.Now(), nil))

	r.Remove("/p/a.vhd")

	_, ok := r.Get("/p/a.vhd")
	assert.False(t, ok)
	_, ok = r.Owner(domain.NewUnitKey("lib", "a"))
	assert.False(t, ok)
	assert.ErrorContains(t, r.Apply("/p/a.vhd", parsedUnits("a"), time.Now(), nil), domain.ErrSourceNotFound.Error())
}
