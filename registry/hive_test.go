package registry

import (
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/assockit/internal/regf/regftest"
	"github.com/joshuapare/assockit/pkg/types"
)

func softwareHive() *regftest.Key {
	root := &regftest.Key{Name: "ROOT"}
	classes := root.Path("Classes")
	classes.Path(".txt").String("", "txtfile").String("Content Type", "text/plain")
	classes.Path("txtfile", "shell", "open", "command").ExpandString("", `%SystemRoot%\notepad.exe %1`)
	classes.Path("http").String("URL Protocol", "")
	root.Path("Clients", "StartMenuInternet")
	return root
}

func usrClassHive() *regftest.Key {
	root := &regftest.Key{Name: "S-1-5-21_Classes"}
	root.Path(".txt").String("", "mytxt")
	root.Path("mytxt", "shell", "open", "command").String("", `"C:\Ed\ed.exe" "%1"`)
	return root
}

func ntuserHive() *regftest.Key {
	root := &regftest.Key{Name: "ROOT"}
	root.Path("Software", "Microsoft", "Windows", "CurrentVersion", "Explorer", "FileExts", ".txt", "UserChoice").
		String("ProgId", "mytxt")
	root.Path("Software", "Classes", "stale").String("", "from ntuser")
	return root
}

func memHives(t *testing.T) (afero.Fs, HiveSet) {
	t.Helper()
	fs := afero.NewMemMapFs()
	set := HiveSet{Software: "/hives/SOFTWARE", NTUser: "/hives/NTUSER.DAT", UsrClass: "/hives/UsrClass.dat"}
	require.NoError(t, afero.WriteFile(fs, set.Software, regftest.Build(softwareHive()), 0o644))
	require.NoError(t, afero.WriteFile(fs, set.NTUser, regftest.Build(ntuserHive()), 0o644))
	require.NoError(t, afero.WriteFile(fs, set.UsrClass, regftest.Build(usrClassHive()), 0o644))
	return fs, set
}

func TestOpenHives_MountsAndMergesClasses(t *testing.T) {
	fs, set := memHives(t)
	h, err := OpenHives(set, WithFs(fs))
	require.NoError(t, err)
	defer h.Close()

	k, ok := h.Open(`HKLM\Software\Classes\.txt`)
	require.True(t, ok)
	s, _ := k.ReadString("")
	assert.Equal(t, "txtfile", s)

	k, ok = h.Open(`HKCU\Software\Microsoft\Windows\CurrentVersion\Explorer\FileExts\.txt\UserChoice`)
	require.True(t, ok)
	s, _ = k.ReadString("ProgId")
	assert.Equal(t, "mytxt", s)

	// UsrClass replaces NTUSER's own Classes subtree.
	_, ok = h.Open(`HKCU\Software\Classes\stale`)
	assert.False(t, ok)
	_, ok = h.Open(`HKCU\Software\Classes\mytxt`)
	assert.True(t, ok)

	// HKCR: user values win, machine-only keys and values survive.
	k, ok = h.Open(`HKCR\.txt`)
	require.True(t, ok)
	s, _ = k.ReadString("")
	assert.Equal(t, "mytxt", s)
	s, _ = k.ReadString("Content Type")
	assert.Equal(t, "text/plain", s)
	for _, p := range []string{`HKCR\txtfile\shell\open\command`, `HKCR\mytxt\shell\open\command`, `HKCR\http`} {
		_, ok = h.Open(p)
		assert.True(t, ok, p)
	}
	root, ok := h.Open(`HKCR`)
	require.True(t, ok)
	assert.Equal(t, []string{".txt", "txtfile", "http", "mytxt"}, slices.Collect(root.Subkeys()))
}

func TestOpenHives_Errors(t *testing.T) {
	_, err := OpenHives(HiveSet{})
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad", []byte("nope"), 0o644))
	_, err = OpenHives(HiveSet{Software: "/bad"}, WithFs(fs))
	require.ErrorIs(t, err, types.ErrNotHive)

	_, err = OpenHives(HiveSet{Software: "/missing"}, WithFs(fs))
	require.Error(t, err)
}

func TestHives_ReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	set := HiveSet{Software: filepath.Join(dir, "SOFTWARE")}
	require.NoError(t, os.WriteFile(set.Software, regftest.Build(softwareHive()), 0o644))

	h, err := OpenHives(set)
	require.NoError(t, err)
	defer h.Close()

	var fired atomic.Int32
	w, err := h.Watch(`HKCR`, true, types.EventsAll, func() { fired.Add(1) })
	require.NoError(t, err)
	defer w.Close()

	updated := softwareHive()
	updated.Path("Classes", ".md").String("", "mdfile")
	require.NoError(t, os.WriteFile(set.Software, regftest.Build(updated), 0o644))

	waitCount(t, &fired, 1)
	assert.Eventually(t, func() bool {
		_, ok := h.Open(`HKCR\.md`)
		return ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHives_ReloadUnknownFile(t *testing.T) {
	fs, set := memHives(t)
	h, err := OpenHives(set, WithFs(fs))
	require.NoError(t, err)
	require.ErrorIs(t, h.Reload("/elsewhere"), types.ErrNotFound)

	require.NoError(t, afero.WriteFile(fs, set.NTUser, regftest.Build(ntuserHive()), 0o644))
	require.NoError(t, h.Reload(set.NTUser))
	_, ok := h.Open(`HKCU\Software\Classes\stale`)
	assert.False(t, ok, "UsrClass is remounted after the user hive reloads")
}
