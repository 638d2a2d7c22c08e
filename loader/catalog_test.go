package loader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_PathAbsolute(t *testing.T) {
	c := NewCatalog("/srv/app")
	assert.Equal(t, "/absolute/path", c.Path("/absolute/path"))
}

func TestCatalog_PathBareName(t *testing.T) {
	c := NewCatalog("/srv/app")
	assert.Equal(t, "strings", c.Path("strings"))
	assert.Equal(t, "lib/smth", c.Path("lib/smth"))
}

func TestCatalog_PathRelativeToRoot(t *testing.T) {
	c := NewCatalog("/srv/app")
	assert.Equal(t, filepath.Join("/srv/app", "util"), c.Path("./util"))
	assert.Equal(t, filepath.Join("/srv", "shared"), c.Path("../shared"))
}

func TestCatalog_RegisterAndLoad(t *testing.T) {
	c := NewCatalog("/srv/app")
	module := map[string]any{"A": "value"}

	require.NoError(t, c.Register("./fixtures", module))

	loaded, err := c.LoadModule("/srv/app/fixtures")
	require.NoError(t, err)
	assert.Equal(t, module, loaded)

	loaded, err = c.LoadModule("./fixtures")
	require.NoError(t, err)
	assert.Equal(t, module, loaded)
}

func TestCatalog_RegisterDuplicate(t *testing.T) {
	c := NewCatalog("/srv/app")
	require.NoError(t, c.Register("./mod", 1))

	err := c.Register("/srv/app/mod", 2)
	var dup *AlreadyRegisteredError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "/srv/app/mod", dup.Path)
}

func TestCatalog_RegisterInvalid(t *testing.T) {
	c := NewCatalog("")
	assert.Error(t, c.Register("", 1))
	assert.Error(t, c.Register("mod", nil))
}

func TestCatalog_LoadUnknown(t *testing.T) {
	c := NewCatalog("/srv/app")

	_, err := c.LoadModule("missing")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.Path)
}

func TestCatalog_MustRegisterPanics(t *testing.T) {
	c := NewCatalog("")
	c.MustRegister("mod", 1)
	assert.Panics(t, func() { c.MustRegister("mod", 2) })
}

func TestCatalog_Paths(t *testing.T) {
	c := NewCatalog("/root")
	c.MustRegister("b", 1)
	c.MustRegister("a", 2)
	c.MustRegister("./c", 3)

	assert.Equal(t, []string{"/root/c", "a", "b"}, c.Paths())
}
