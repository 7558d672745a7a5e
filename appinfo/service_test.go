package appinfo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/assockit/appinfo"
	"github.com/joshuapare/assockit/assoc/launch"
	"github.com/joshuapare/assockit/assoc/packaged"
	"github.com/joshuapare/assockit/pkg/types"
	"github.com/joshuapare/assockit/registry"
)

const regHeader = "Windows Registry Editor Version 5.00\n\n"

func newService(t *testing.T, reg string, opts ...appinfo.Option) (*appinfo.Service, *registry.Memory) {
	t.Helper()
	m := registry.NewMemory()
	if reg != "" {
		require.NoError(t, m.LoadReg([]byte(regHeader+reg)))
	}
	svc := appinfo.New(m, opts...)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, m
}

func TestCreateFromCommandline(t *testing.T) {
	svc, _ := newService(t, "")

	info, err := svc.CreateFromCommandline(`"C:\tools\app.exe" --open %f`, "")
	require.NoError(t, err)
	assert.Equal(t, `C:\tools\app.exe`, info.Executable())
	assert.Equal(t, "app.exe", info.ID())
	assert.Equal(t, "Unnamed", info.Name())
	assert.Empty(t, info.Verbs()[0].DLLFunction)
	assert.Equal(t, "open", info.Verbs()[0].Name)

	named, err := svc.CreateFromCommandline(`"C:\tools\app.exe" %f`, "Tool")
	require.NoError(t, err)
	assert.Equal(t, "Tool", named.ID())
	assert.Equal(t, "Tool", named.DisplayName())

	_, err = svc.CreateFromCommandline("  ", "x")
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

const pdfReg = `[HKEY_CLASSES_ROOT\.pdf]
@="Adobe"

[HKEY_CLASSES_ROOT\Adobe\shell\open\command]
@="\"C:\\Adobe\\acro.exe\" \"%1\""

[HKEY_CLASSES_ROOT\Sumatra\shell\open\command]
@="\"C:\\Sumatra\\sumatra.exe\" \"%1\""

[HKEY_CURRENT_USER\Software\Microsoft\Windows\CurrentVersion\Explorer\FileExts\.pdf\UserChoice]
"Progid"="Sumatra"
`

func TestDefaultForType_UserChoice(t *testing.T) {
	svc, _ := newService(t, pdfReg)

	info := svc.DefaultForType(".PDF", false)
	require.NotNil(t, info)
	assert.Equal(t, `C:\Sumatra\sumatra.exe`, info.Executable())
	assert.Equal(t, "Sumatra", info.Handler().ID)

	all := svc.AllForType(".pdf")
	require.Len(t, all, 2)
	assert.True(t, all[0].Equal(info), "the default comes first")
	assert.Equal(t, `C:\Adobe\acro.exe`, all[1].Executable())

	assert.Nil(t, svc.DefaultForType(".pdf", true), "neither app takes URIs")
	assert.Nil(t, svc.DefaultForType(".nope", false))
	assert.Nil(t, svc.AllForType(".nope"))
}

func TestAllForType_FakeApp(t *testing.T) {
	svc, _ := newService(t, `[HKEY_CLASSES_ROOT\.xyz]
@="xyzfile"

[HKEY_CLASSES_ROOT\xyzfile\shell\open\command]
@="C:\\proc\\xyz.exe %1"
`)
	all := svc.AllForType(".xyz")
	require.Len(t, all, 1)
	assert.Equal(t, `c:\proc\xyz.exe`, all[0].App().Folded)
	assert.Equal(t, `C:\proc\xyz.exe`, all[0].ID())
	assert.Equal(t, []string{".xyz"}, all[0].SupportedTypes())
	assert.True(t, all[0].SupportsFiles())
	assert.False(t, all[0].SupportsURIs())
}

func TestAllForType_DuplicateVerbs(t *testing.T) {
	svc, _ := newService(t, `[HKEY_CLASSES_ROOT\.a]
@="H1"

[HKEY_CLASSES_ROOT\.a\OpenWithProgids]
"H2"=""

[HKEY_CLASSES_ROOT\H1\shell\open\command]
@="C:\\proc\\app.exe X %1"

[HKEY_CLASSES_ROOT\H2\shell\open\command]
@="C:\\proc\\app.exe Y %1"
`)
	all := svc.AllForType(".a")
	require.Len(t, all, 1, "both handlers lead to one app")

	verbs := all[0].Verbs()
	require.Len(t, verbs, 2)
	assert.Equal(t, "open (0)", verbs[0].Name, "the last linked verb leads")
	assert.Equal(t, `C:\proc\app.exe Y %1`, verbs[0].Command)
	assert.Equal(t, "open", verbs[1].Name)
	assert.Equal(t, `C:\proc\app.exe X %1`, verbs[1].Command)
}

func TestDefaultForURIScheme(t *testing.T) {
	svc, _ := newService(t, `[HKEY_CLASSES_ROOT\myapp]
"URL Protocol"=""

[HKEY_CLASSES_ROOT\myapp\shell\open\command]
@="\"C:\\My App\\myapp.exe\" \"%1\""

[HKEY_CLASSES_ROOT\file]
"URL Protocol"=""

[HKEY_CLASSES_ROOT\file\shell\open\command]
@="C:\\files.exe %1"
`)
	info := svc.DefaultForURIScheme("MyApp")
	require.NotNil(t, info)
	assert.Equal(t, `C:\My App\myapp.exe`, info.Executable())
	assert.True(t, info.SupportsURIs())

	assert.Nil(t, svc.DefaultForURIScheme("file"))
	assert.Nil(t, svc.DefaultForURIScheme("nope"))
}

func TestPackagedApp(t *testing.T) {
	const aumid = "Example.App_1234!App"
	rec := &launch.Recorder{}
	svc, _ := newService(t, "",
		appinfo.WithPackages(packaged.Static{{
			FullName:  "Example.App_1.0.0.0_x64__1234",
			Name:      "Example.App",
			AUMID:     aumid,
			ExtGroups: []packaged.ExtGroup{{Verbs: []string{"open"}, Extensions: []string{".foo"}}},
		}}),
		appinfo.WithLaunchOptions(launch.WithSpawner(rec), launch.WithActivator(rec)))

	info := svc.DefaultForType(".foo", false)
	require.NotNil(t, info)
	assert.True(t, info.Packaged())
	assert.Equal(t, aumid, info.ID())
	assert.Empty(t, info.Executable())
	assert.Empty(t, info.Commandline())

	require.NoError(t, svc.Launch(context.Background(), info, []string{`C:\a.foo`}, nil))
	calls := rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "activate-for-file", calls[0].Kind)
	assert.Equal(t, aumid, calls[0].AUMID)
	assert.Equal(t, "open", calls[0].Verb)
	assert.Equal(t, []string{`C:\a.foo`}, calls[0].Items)

	all := svc.All()
	require.Len(t, all, 1)
	assert.True(t, all[0].Equal(info))
	assert.Nil(t, all[0].Handler())
}

func TestLaunchURIs_CommandApp(t *testing.T) {
	rec := &launch.Recorder{}
	svc, _ := newService(t, `[HKEY_CLASSES_ROOT\myapp]
"URL Protocol"=""

[HKEY_CLASSES_ROOT\myapp\shell\open\command]
@="\"C:\\My App\\myapp.exe\" \"%1\""
`, appinfo.WithLaunchOptions(launch.WithSpawner(rec), launch.WithActivator(rec)))

	info := svc.DefaultForURIScheme("myapp")
	require.NotNil(t, info)
	require.NoError(t, svc.LaunchURIs(context.Background(), info, []string{"myapp:one", "myapp:two"},
		launch.DefaultContext{Env: []string{}}))

	calls := rec.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []string{"C:/My App/myapp.exe", "myapp:one"}, calls[0].Argv)
	assert.Equal(t, []string{"C:/My App/myapp.exe", "myapp:two"}, calls[1].Argv)
}

func TestService_SeesChanges(t *testing.T) {
	svc, m := newService(t, `[HKEY_CLASSES_ROOT\.txt]
@="txtfile"

[HKEY_CLASSES_ROOT\txtfile\shell\open\command]
@="C:\\notepad.exe %1"
`)
	require.NoError(t, svc.Start(context.Background()))
	require.NotNil(t, svc.DefaultForType(".txt", false))

	// FileExts does not exist at start, so only the new class key triggers
	// the rebuild.
	require.NoError(t, m.SetString(`HKEY_CURRENT_USER\Software\Microsoft\Windows\CurrentVersion\Explorer\FileExts\.txt\UserChoice`,
		"Progid", "wordpad"))
	require.NoError(t, m.SetString(`HKEY_CLASSES_ROOT\wordpad\shell\open\command`, "", `C:\wordpad.exe %1`))

	assert.Eventually(t, func() bool {
		info := svc.DefaultForType(".txt", false)
		return info != nil && info.Executable() == `C:\wordpad.exe`
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLookupAndAllForURIScheme(t *testing.T) {
	svc, _ := newService(t, `[HKEY_CLASSES_ROOT\myapp]
"URL Protocol"=""

[HKEY_CLASSES_ROOT\myapp\shell\open\command]
@="\"C:\\My App\\myapp.exe\" \"%1\""
`)
	all := svc.AllForURIScheme("MYAPP")
	require.Len(t, all, 1)
	assert.Equal(t, "myapp", all[0].Handler().ID)
	assert.Nil(t, svc.AllForURIScheme("file"))

	found := svc.Lookup(`c:\my app\myapp.exe`)
	require.NotNil(t, found)
	assert.True(t, found.Equal(all[0]))
	assert.Nil(t, svc.Lookup("missing.exe"))
}
