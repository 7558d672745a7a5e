package scan_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/assockit/assoc"
	"github.com/joshuapare/assockit/assoc/packaged"
	"github.com/joshuapare/assockit/assoc/scan"
	"github.com/joshuapare/assockit/internal/cmdline"
	"github.com/joshuapare/assockit/internal/ustr"
	"github.com/joshuapare/assockit/registry"
)

// seed writes string values; a value name of "-" only creates the key.
func seed(t *testing.T, m *registry.Memory, entries [][3]string) {
	t.Helper()
	for _, e := range entries {
		if e[1] == "-" {
			require.NoError(t, m.CreateKey(e[0]))
			continue
		}
		require.NoError(t, m.SetString(e[0], e[1], e[2]))
	}
}

func scanGraph(t *testing.T, m *registry.Memory, opts ...scan.Option) *assoc.Graph {
	t.Helper()
	opts = append([]scan.Option{scan.WithSameFile(func(a, b string) bool { return false })}, opts...)
	g, err := scan.New(m, opts...).Scan(context.Background())
	require.NoError(t, err)
	checkInvariants(t, g)
	return g
}

func checkInvariants(t *testing.T, g *assoc.Graph) {
	t.Helper()
	bindings := map[string]*assoc.Binding{}
	for k, s := range g.Schemas {
		assert.Equal(t, ustr.Fold(s.Name), k)
		bindings["schema "+k] = &s.Binding
	}
	for k, e := range g.Extensions {
		assert.Equal(t, ustr.Fold(e.Name), k)
		bindings["ext "+k] = &e.Binding
	}
	for name, b := range bindings {
		if b.Chosen != nil {
			assert.Same(t, b.Chosen, b.Handlers[b.Chosen.Folded], "%s: chosen handler is in the set", name)
		}
	}
	for k, h := range g.Handlers {
		assert.Equal(t, ustr.Fold(h.ID), k)
		for _, v := range h.Verbs {
			if h.Packaged() {
				assert.True(t, v.Packaged, "handler %s verb %s", h.ID, v.Name)
				assert.Empty(t, v.Command)
				continue
			}
			assert.NotNil(t, v.App, "handler %s verb %s has an app", h.ID, v.Name)
			assert.NotEmpty(t, v.Executable)
			assert.Equal(t, v.ExecutableFolded, cmdline.ExtractExecutable(v.Command).Folded)
		}
	}
	for _, m := range []map[string]*assoc.App{g.AppsByID, g.AppsByExe, g.FakeApps} {
		for k, a := range m {
			assert.Equal(t, a.Folded, k)
		}
	}
}

const (
	hkcr     = `HKEY_CLASSES_ROOT`
	fileExts = scan.FileExts
)

func TestScan_Empty(t *testing.T) {
	g := scanGraph(t, registry.NewMemory())
	assert.Equal(t, assoc.Stats{}, g.Stats())
}

func TestScan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := scan.New(registry.NewMemory()).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScan_UserChoiceWins(t *testing.T) {
	m := registry.NewMemory()
	seed(t, m, [][3]string{
		{hkcr + `\.pdf\OpenWithProgids`, "AcroExch.Document", ""},
		{hkcr + `\.pdf\OpenWithProgids`, "SumatraPDF", ""},
		{hkcr + `\AcroExch.Document\shell\open\command`, "", `"C:\Program Files\Adobe\Acrobat.exe" "%1"`},
		{hkcr + `\SumatraPDF\shell\open\command`, "", `"C:\Sumatra\SumatraPDF.exe" "%1"`},
		{fileExts + `\.pdf\UserChoice`, "Progid", "SumatraPDF"},
	})
	g := scanGraph(t, m)

	pdf := g.Extension(".PDF")
	require.NotNil(t, pdf)
	require.NotNil(t, pdf.Chosen)
	assert.Equal(t, "SumatraPDF", pdf.Chosen.ID)
	assert.ElementsMatch(t, []string{"acroexch.document", "sumatrapdf"}, assoc.SortedKeys(pdf.Handlers))

	h := g.Handler("sumatrapdf")
	require.NotNil(t, h)
	assert.Equal(t, hkcr+`\SumatraPDF`, h.KeyPath)
	require.Len(t, h.Verbs, 1)
	assert.Equal(t, `C:\Sumatra\SumatraPDF.exe`, h.Verbs[0].App.Canonical)
}

func TestScan_FirstHandlerChosenWithoutUserChoice(t *testing.T) {
	m := registry.NewMemory()
	seed(t, m, [][3]string{
		{hkcr + `\.pdf\OpenWithProgids`, "AcroExch.Document", ""},
		{hkcr + `\.pdf\OpenWithProgids`, "SumatraPDF", ""},
		{hkcr + `\AcroExch.Document\shell\open\command`, "", `"C:\Program Files\Adobe\Acrobat.exe" "%1"`},
		{hkcr + `\SumatraPDF\shell\open\command`, "", `"C:\Sumatra\SumatraPDF.exe" "%1"`},
	})
	g := scanGraph(t, m)
	assert.Equal(t, "AcroExch.Document", g.Extension(".pdf").Chosen.ID)
}

func TestScan_FakeApp(t *testing.T) {
	m := registry.NewMemory()
	seed(t, m, [][3]string{
		{hkcr + `\.xyz`, "", "xyzfile"},
		{hkcr + `\xyzfile\shell\open\command`, "", `C:\Proc\XYZ.exe %1`},
	})
	g := scanGraph(t, m)

	xyz := g.Extension(".xyz")
	require.NotNil(t, xyz)
	h := xyz.Chosen
	require.NotNil(t, h)
	assert.Equal(t, "xyzfile", h.ID, "the default value proxies to the class key")

	app := g.FakeApps[`c:\proc\xyz.exe`]
	require.NotNil(t, app)
	assert.Equal(t, `C:\Proc\XYZ.exe`, app.Canonical)
	require.Len(t, app.Verbs, 1)
	assert.Equal(t, "open", app.Verbs[0].Name)
	assert.Same(t, app, h.Verbs[0].App)
	assert.Same(t, h, app.SupportedExts[".xyz"])
	assert.Empty(t, g.AppsByID, "fake apps are not listed")
}

func TestScan_FakeAppInventsVerbNames(t *testing.T) {
	m := registry.NewMemory()
	seed(t, m, [][3]string{
		{hkcr + `\.abc\OpenWithProgids`, "H1", ""},
		{hkcr + `\.abc\OpenWithProgids`, "H2", ""},
		{hkcr + `\H1\shell\open\command`, "", `C:\tool\tool.exe --x "%1"`},
		{hkcr + `\H2\shell\open\command`, "", `C:\tool\tool.exe --y "%1"`},
	})
	g := scanGraph(t, m)

	app := g.FakeApps[`c:\tool\tool.exe`]
	require.NotNil(t, app)
	require.Len(t, app.Verbs, 2)
	// Each linked verb goes first, so the last handler's verb leads.
	assert.Equal(t, "open (0)", app.Verbs[0].Name)
	assert.Equal(t, `C:\tool\tool.exe --y "%1"`, app.Verbs[0].Command)
	assert.Equal(t, "open", app.Verbs[1].Name)
	assert.Equal(t, `C:\tool\tool.exe --x "%1"`, app.Verbs[1].Command)
}

func TestScan_VerbOrderAndGroups(t *testing.T) {
	m := registry.NewMemory()
	seed(t, m, [][3]string{
		{hkcr + `\.grp`, "", "grpfile"},
		{hkcr + `\grpfile\shell`, "", "edit"},
		{hkcr + `\grpfile\shell\zeta\command`, "", `C:\g\g.exe zeta`},
		{hkcr + `\grpfile\shell\Open\command`, "", `C:\g\g.exe open`},
		{hkcr + `\grpfile\shell\blank\command`, "", ""},
		{hkcr + `\grpfile\shell\nocmd`, "-", ""},
		{hkcr + `\grpfile\shell\edit\command`, "", `C:\g\g.exe edit`},
		{hkcr + `\grpfile\shell\edit`, "MUIVerb", "Edit it"},
		{hkcr + `\grpfile\shell\menu`, "Subcommands", ""},
		{hkcr + `\grpfile\shell\menu\shell\b\command`, "", `C:\g\g.exe b`},
		{hkcr + `\grpfile\shell\menu\shell\a\command`, "", `C:\g\g.exe a`},
		{hkcr + `\grpfile\shell\lonely`, "Subcommands", ""},
		{hkcr + `\grpfile\shell\lonely\command`, "", `C:\g\g.exe lonely`},
	})
	g := scanGraph(t, m)

	h := g.Handler("grpfile")
	require.NotNil(t, h)
	var names []string
	for _, v := range h.Verbs {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"edit", "Open", "lonely", `menu\a`, `menu\b`, "zeta"}, names)
	assert.Equal(t, "Edit it", h.Verbs[0].DisplayName)
	assert.Equal(t, `C:\g\g.exe a`, h.Verbs[3].Command)
}

func TestScan_AutoPreferFirst(t *testing.T) {
	m := registry.NewMemory()
	seed(t, m, [][3]string{
		{hkcr + `\.two`, "", "twofile"},
		{hkcr + `\twofile\shell\print\command`, "", `C:\t\t.exe /p "%1"`},
		{hkcr + `\twofile\shell\view\command`, "", `C:\t\t.exe "%1"`},
	})
	g := scanGraph(t, m)
	h := g.Handler("twofile")
	require.Len(t, h.Verbs, 2)
	assert.Equal(t, "print", h.FirstVerb().Name)
}

func TestScan_NoVerbsNoRecords(t *testing.T) {
	m := registry.NewMemory()
	seed(t, m, [][3]string{
		{hkcr + `\.nothing`, "", "nofile"},
		{hkcr + `\nofile\shell`, "-", ""},
		{fileExts + `\notanext\UserChoice`, "Progid", "nofile"},
	})
	g := scanGraph(t, m)
	assert.Nil(t, g.Extension(".nothing"))
	assert.Nil(t, g.Handler("nofile"))
	assert.Empty(t, g.Extensions)
}

func seedCapable(t *testing.T, m *registry.Memory) {
	t.Helper()
	const browser = `HKEY_LOCAL_MACHINE\Software\Clients\StartMenuInternet\Browser`
	const editor = `HKEY_CURRENT_USER\Software\Editor`
	seed(t, m, [][3]string{
		{`HKEY_LOCAL_MACHINE\Software\Clients\StartMenuInternet`, "", "Browser"},
		{browser, "", "Browser"},
		{browser + `\Capabilities`, "ApplicationName", "Browser Name"},
		{browser + `\Capabilities`, "ApplicationDescription", "Browses"},
		{browser + `\Capabilities\URLAssociations`, "http", "BrowserURL"},
		{browser + `\DefaultIcon`, "", `C:\Browser\browser.exe,0`},
		{browser + `\shell\open\command`, "", `C:\Browser\browser.exe`},
		{hkcr + `\BrowserURL\shell\open\command`, "", `"C:\Browser\browser.exe" -url "%1"`},

		{`HKEY_CURRENT_USER\Software\RegisteredApplications`, "Editor", `Software\Editor\Capabilities`},
		{`HKEY_CURRENT_USER\Software\RegisteredApplications`, "Gone", `Software\Gone\Capabilities`},
		{editor, "", "Editor Pro"},
		{editor + `\Capabilities\FileAssociations`, ".txt", "Editor.txt"},
		{editor + `\Capabilities\FileAssociations`, "noDot", "Editor.txt"},
		{editor + `\shell\edit\command`, "", `C:\Editor\editor.exe "%1"`},
		{hkcr + `\Editor.txt\shell\open\command`, "", `C:\Editor\editor.exe "%1"`},

		{hkcr + `\.log`, "", "logfile"},
		{hkcr + `\logfile\shell\open\command`, "", `C:\EDITOR\Editor.exe /log "%1"`},
		{hkcr + `\.md`, "", "mdfile"},
		{hkcr + `\mdfile\shell\open\command`, "", `D:\Mirror\editor.exe "%1"`},
	})
}

func TestScan_CapableApps(t *testing.T) {
	m := registry.NewMemory()
	seedCapable(t, m)
	g := scanGraph(t, m)

	browser := g.AppsByID[ustr.Fold(`HKEY_LOCAL_MACHINE\Software\Clients\StartMenuInternet\Browser`)]
	require.NotNil(t, browser)
	assert.True(t, browser.DefaultApp)
	assert.True(t, browser.UserSpecific)
	assert.Equal(t, "Browser", browser.PrettyName)
	assert.Equal(t, "Browser Name", browser.LocalizedName)
	assert.Equal(t, "Browses", browser.Description)
	assert.Equal(t, `C:\Browser\browser.exe,0`, browser.Icon)
	require.Len(t, browser.Verbs, 1)

	http := g.Schema("HTTP")
	require.NotNil(t, http)
	assert.Equal(t, "BrowserURL", http.Chosen.ID)
	assert.Same(t, http.Chosen, browser.SupportedURLs["http"])
	assert.Same(t, browser, http.Chosen.Verbs[0].App)

	editor := g.AppsByID[ustr.Fold(`HKEY_CURRENT_USER\Software\Editor`)]
	require.NotNil(t, editor)
	assert.False(t, editor.DefaultApp)
	assert.True(t, editor.UserSpecific)
	assert.Equal(t, "Editor Pro", editor.PrettyName)
	assert.Equal(t, []string{".txt"}, editor.SupportedTypes())
	assert.Same(t, editor, g.Handler("Editor.txt").Verbs[0].App)
	assert.Len(t, g.AppsByID, 2, "a registration pointing nowhere is skipped")
}

func TestScan_LinkUnregistered(t *testing.T) {
	m := registry.NewMemory()
	seedCapable(t, m)
	seed(t, m, [][3]string{
		{hkcr + `\Applications\viewer.exe\shell\open\command`, "", `C:\Viewer\viewer.exe "%1"`},
		{hkcr + `\.jpg`, "", "jpgfile"},
		{hkcr + `\jpgfile\shell\open\command`, "", `"D:\Other\VIEWER.EXE" "%1"`},
	})

	t.Run("by path or exe name", func(t *testing.T) {
		g := scanGraph(t, m)
		editor := g.AppsByID[ustr.Fold(`HKEY_CURRENT_USER\Software\Editor`)]
		assert.Same(t, editor, g.Handler("logfile").Verbs[0].App, "same folded executable")
		assert.Same(t, g.AppsByExe["viewer.exe"], g.Handler("jpgfile").Verbs[0].App, "executable name")

		md := g.Handler("mdfile").Verbs[0].App
		assert.Same(t, g.FakeApps[`d:\mirror\editor.exe`], md, "same basename, different file")
	})

	t.Run("by file identity", func(t *testing.T) {
		same := func(a, b string) bool {
			return strings.EqualFold(a, `D:\Mirror\editor.exe`) || strings.EqualFold(b, `D:\Mirror\editor.exe`)
		}
		g := scanGraph(t, m, scan.WithSameFile(same))
		editor := g.AppsByID[ustr.Fold(`HKEY_CURRENT_USER\Software\Editor`)]
		assert.Same(t, editor, g.Handler("mdfile").Verbs[0].App)
		assert.Empty(t, g.FakeApps)
	})
}

func TestScan_ExeApps(t *testing.T) {
	m := registry.NewMemory()
	seed(t, m, [][3]string{
		{hkcr + `\Applications\viewer.exe`, "FriendlyAppName", "Viewer"},
		{hkcr + `\Applications\viewer.exe`, "NoOpenWith", ""},
		{hkcr + `\Applications\viewer.exe\SupportedTypes`, ".png", ""},
		{hkcr + `\Applications\viewer.exe\SupportedTypes`, "png", ""},
		{hkcr + `\Applications\viewer.exe\shell\open\command`, "", `C:\Viewer\viewer.exe "%1"`},
		{hkcr + `\Applications\noverbs.exe`, "FriendlyAppName", "Nothing"},
		{hkcr + `\.png`, "", "pngfile"},
		{hkcr + `\pngfile\shell\open\command`, "", `C:\Paint\paint.exe "%1"`},
	})
	g := scanGraph(t, m)

	app := g.AppsByExe["viewer.exe"]
	require.NotNil(t, app)
	assert.Equal(t, "Viewer", app.LocalizedName)
	assert.True(t, app.NoOpenWith)
	assert.Equal(t, "open", app.FirstVerb().Name)
	assert.Equal(t, []string{".png"}, app.SupportedTypes())
	assert.Same(t, g.Handler("pngfile"), app.SupportedExts[".png"])
	assert.Same(t, app, g.Handler("pngfile").Verbs[0].App, "verbs read for an app belong to it")
	assert.Nil(t, g.AppsByExe["noverbs.exe"])
}

func TestScan_URLSchemes(t *testing.T) {
	m := registry.NewMemory()
	seed(t, m, [][3]string{
		{hkcr + `\myproto`, "URL Protocol", ""},
		{hkcr + `\myproto\shell\open\command`, "", `C:\My\proto.exe "%1"`},
		{hkcr + `\notproto\shell\open\command`, "", `C:\My\proto.exe "%1"`},
		{hkcr + `\my-proto`, "URL Protocol", ""},
		{hkcr + `\my-proto\shell\open\command`, "", `C:\My\proto.exe "%1"`},
		{hkcr + `\OtherProto\shell\open\command`, "", `C:\Other\other.exe "%1"`},
		{scan.URLAssociations + `\myproto\UserChoice`, "Progid", "OtherProto"},
	})
	g := scanGraph(t, m)

	s := g.Schema("MyProto")
	require.NotNil(t, s)
	assert.Equal(t, "OtherProto", s.Chosen.ID)
	assert.Len(t, s.Handlers, 2)
	assert.Nil(t, g.Schema("notproto"))
	assert.Nil(t, g.Schema("my-proto"))

	fake := g.FakeApps[`c:\my\proto.exe`]
	require.NotNil(t, fake)
	assert.Same(t, g.Handler("myproto"), fake.SupportedURLs["myproto"])
}

const exampleAUMID = "Example.App_1234!App"

func TestScan_PackagedApp(t *testing.T) {
	m := registry.NewMemory()
	pkgs := packaged.Static{{
		FullName:  "Example.App_1.0.0.0_x64__1234",
		Name:      "Example.App",
		AUMID:     exampleAUMID,
		ExtGroups: []packaged.ExtGroup{{Verbs: []string{"open"}, Extensions: []string{".foo"}}},
		Protocols: []string{"example-app"},
	}}
	g := scanGraph(t, m, scan.WithPackages(pkgs))

	app := g.AppsByID[ustr.Fold(exampleAUMID)]
	require.NotNil(t, app)
	assert.True(t, app.Packaged)
	assert.True(t, app.UserSpecific)
	require.Len(t, app.Verbs, 1)
	assert.True(t, app.Verbs[0].Packaged)
	assert.Empty(t, app.Commandline())

	foo := g.Extension(".foo")
	require.NotNil(t, foo)
	require.NotNil(t, foo.Chosen)
	assert.Equal(t, exampleAUMID, foo.Chosen.AUMID)
	assert.Same(t, app, foo.Chosen.FirstVerb().App)

	proto := g.Schema("example-app")
	require.NotNil(t, proto)
	assert.Equal(t, "open", proto.Chosen.FirstVerb().Name)
	assert.True(t, app.SupportsURIs())
}

func TestScan_PackagedProgID(t *testing.T) {
	m := registry.NewMemory()
	seed(t, m, [][3]string{
		{hkcr + `\.foo\OpenWithProgids`, "AppXabc", ""},
		{hkcr + `\AppXabc\Application`, "AppUserModelID", exampleAUMID},
		{hkcr + `\AppXabc\Application`, "ApplicationName", "@{res}"},
		{hkcr + `\AppXabc\Application`, "ApplicationDescription", "ms-resource:Desc"},
		{hkcr + `\AppXabc\Shell\open`, "ActivatableClassId", "App.AppXabc.mca"},
	})
	pkgs := packaged.Static{{
		AUMID:     exampleAUMID,
		ExtGroups: []packaged.ExtGroup{{Verbs: []string{"open"}, Extensions: []string{".foo"}}},
	}}
	g := scanGraph(t, m,
		scan.WithPackages(pkgs),
		scan.WithIndirectStrings(packaged.MapLoader{"@{res}": "Example"}))

	foo := g.Extension(".foo")
	require.NotNil(t, foo)
	require.Len(t, foo.Handlers, 1, "the package reuses the ProgID handler")
	h := foo.Chosen
	assert.Equal(t, "AppXabc", h.ID)
	assert.Equal(t, exampleAUMID, h.AUMID)

	app := g.AppsByID[ustr.Fold(exampleAUMID)]
	require.NotNil(t, app)
	assert.Same(t, app, h.FirstVerb().App)
	assert.Equal(t, "Example", app.LocalizedName)
	assert.Empty(t, app.Description, "resource URIs are not resolved")
}

func TestScan_PackagedProgIDDowngraded(t *testing.T) {
	m := registry.NewMemory()
	seed(t, m, [][3]string{
		{hkcr + `\.bar\OpenWithProgids`, "Hybrid", ""},
		{hkcr + `\Hybrid\Application`, "AppUserModelID", exampleAUMID},
		{hkcr + `\Hybrid\Shell\open\command`, "", `C:\Hybrid\hybrid.exe "%1"`},
	})
	g := scanGraph(t, m)

	h := g.Handler("Hybrid")
	require.NotNil(t, h)
	assert.False(t, h.Packaged(), "a verb without an activatable class makes it a command handler")
	assert.Equal(t, `C:\Hybrid\hybrid.exe`, h.FirstVerb().Executable)
}

func TestScan_WatchedRoots(t *testing.T) {
	assert.Len(t, scan.WatchedRoots, 8)
	recursive := 0
	for _, w := range scan.WatchedRoots {
		if w.Recursive {
			recursive++
		}
	}
	assert.Equal(t, 5, recursive)
}
