package regf_test

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/assockit/internal/regf"
	"github.com/joshuapare/assockit/internal/regf/regftest"
	"github.com/joshuapare/assockit/internal/ustr"
	"github.com/joshuapare/assockit/pkg/types"
)

func sampleHive() *regftest.Key {
	root := &regftest.Key{Name: "ROOT"}
	classes := root.Path("Classes")
	classes.Path(".txt").String("", "txtfile").String("Content Type", "text/plain")
	cmd := classes.Path("txtfile", "shell", "open", "command")
	cmd.ExpandString("", `%SystemRoot%\system32\NOTEPAD.EXE %1`)
	classes.Path("txtfile").DWord("EditFlags", 0x10000)
	root.Path("Ünïcode").String("Nämé", "välue")
	return root
}

func TestParse_WalksKeysAndValues(t *testing.T) {
	h, err := regf.Parse(regftest.Build(sampleHive()))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), h.Header().MajorVersion)

	root, err := h.Root()
	require.NoError(t, err)
	assert.Equal(t, "ROOT", root.Name())

	var paths []string
	require.NoError(t, root.Walk(func(p string, _ regf.Key) bool {
		paths = append(paths, p)
		return true
	}))
	assert.Equal(t, []string{
		"",
		"Classes",
		`Classes\.txt`,
		`Classes\txtfile`,
		`Classes\txtfile\shell`,
		`Classes\txtfile\shell\open`,
		`Classes\txtfile\shell\open\command`,
		"Ünïcode",
	}, paths)

	classes, ok, err := root.Subkey("CLASSES")
	require.NoError(t, err)
	require.True(t, ok)
	txt, ok, err := classes.Subkey(".TXT")
	require.NoError(t, err)
	require.True(t, ok)

	vals, err := txt.Values()
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.Equal(t, "", vals[0].Name)
	assert.Equal(t, types.REG_SZ, vals[0].Type)
	s, err := ustr.DecodeRegString(vals[1].Data)
	require.NoError(t, err)
	assert.Equal(t, "Content Type", vals[1].Name)
	assert.Equal(t, "text/plain", s)

	uni, ok, err := root.Subkey("ünïcode")
	require.NoError(t, err)
	require.True(t, ok)
	vals, err = uni.Values()
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, "Nämé", vals[0].Name)
}

func TestValues_InlineAndBigData(t *testing.T) {
	big := bytes.Repeat([]byte("0123456789abcdef"), 2500) // 40000 bytes, three segments
	root := &regftest.Key{Name: "R"}
	root.DWord("small", 7).Raw("empty", types.REG_BINARY, nil).Raw("big", types.REG_BINARY, big)

	h, err := regf.Parse(regftest.Build(root))
	require.NoError(t, err)
	k, err := h.Root()
	require.NoError(t, err)
	vals, err := k.Values()
	require.NoError(t, err)
	require.Len(t, vals, 3)

	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(vals[0].Data))
	assert.Empty(t, vals[1].Data)
	assert.Equal(t, big, vals[2].Data)
}

func TestSubkeys_ListLayouts(t *testing.T) {
	for _, kind := range []regftest.List{regftest.ListLH, regftest.ListLF, regftest.ListLI, regftest.ListRI} {
		t.Run(fmt.Sprint(kind), func(t *testing.T) {
			root := &regftest.Key{Name: "R", List: kind}
			for i := range 5 {
				root.Add(fmt.Sprintf("k%d", i))
			}
			h, err := regf.Parse(regftest.Build(root))
			require.NoError(t, err)
			k, err := h.Root()
			require.NoError(t, err)
			subs, err := k.Subkeys()
			require.NoError(t, err)
			require.Len(t, subs, 5)
			for i, s := range subs {
				assert.Equal(t, fmt.Sprintf("k%d", i), s.Name())
			}
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	_, err := regf.Parse([]byte("not a hive"))
	require.ErrorIs(t, err, types.ErrNotHive)

	img := regftest.Build(&regftest.Key{Name: "R"})
	bad := bytes.Clone(img)
	copy(bad[regf.HeaderSize:], "xxxx")
	_, err = regf.Parse(bad)
	require.ErrorIs(t, err, types.ErrCorrupt)

	// Point the root at the free tail cell.
	bad = bytes.Clone(img)
	binary.LittleEndian.PutUint32(bad[0x24:], uint32(len(img)-regf.HeaderSize-8))
	h, err := regf.Parse(bad)
	require.NoError(t, err)
	_, err = h.Root()
	require.ErrorIs(t, err, types.ErrCorrupt)
}
