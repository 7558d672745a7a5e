package packaged

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"

	"github.com/joshuapare/assockit/registry"
	"github.com/joshuapare/assockit/pkg/types"
)

// PackagesKey lists installed packages, one subkey per full package name.
const PackagesKey = `HKEY_CLASSES_ROOT\Local Settings\Software\Microsoft\Windows\CurrentVersion\AppModel\Repository\Packages`

const (
	rootFolderValue = "PackageRootFolder"
	manifestName    = "AppxManifest.xml"
)

// Repository enumerates packages listed in the AppModel repository and
// reads each package's AppxManifest.xml.
type Repository struct {
	reg          registry.Registry
	fs           afero.Fs
	manifestRoot string
	log          *slog.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithFs reads manifests from fs instead of the OS filesystem.
func WithFs(fs afero.Fs) RepositoryOption { return func(r *Repository) { r.fs = fs } }

// WithManifestRoot looks for manifests under dir/<full package name>
// instead of the registered PackageRootFolder. Useful for offline hives.
func WithManifestRoot(dir string) RepositoryOption {
	return func(r *Repository) { r.manifestRoot = dir }
}

// WithLogger sets the logger used for skipped packages.
func WithLogger(l *slog.Logger) RepositoryOption { return func(r *Repository) { r.log = l } }

// NewRepository returns an enumerator over reg's package repository.
func NewRepository(reg registry.Registry, opts ...RepositoryOption) *Repository {
	r := &Repository{reg: reg, fs: afero.NewOsFs(), log: slog.Default()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Enumerate implements Enumerator. Packages whose manifest cannot be read
// are skipped.
func (r *Repository) Enumerate(ctx context.Context, fn func(Package) bool) error {
	key, ok := r.reg.Open(PackagesKey)
	if !ok {
		return errors.Wrap(types.ErrNotFound, "packaged: no package repository")
	}
	defer key.Close()

	for fullName := range key.Subkeys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		pkgs, err := r.readPackage(key, fullName)
		if err != nil {
			r.log.Debug("skipping package", "package", fullName, "error", err)
			continue
		}
		for _, p := range pkgs {
			if !fn(p) {
				return nil
			}
		}
	}
	return nil
}

func (r *Repository) readPackage(key registry.Key, fullName string) ([]Package, error) {
	var path string
	if r.manifestRoot != "" {
		path = joinPath(r.manifestRoot, fullName, manifestName)
	} else {
		sub, ok := key.OpenSubkey(fullName)
		if !ok {
			return nil, errors.Wrapf(types.ErrNotFound, "open %s", fullName)
		}
		root, ok := sub.ReadString(rootFolderValue)
		sub.Close()
		if !ok || root == "" {
			return nil, errors.Wrapf(types.ErrNotFound, "%s has no %s", fullName, rootFolderValue)
		}
		path = joinPath(root, manifestName)
	}

	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return ParseManifest(fullName, data)
}

// joinPath joins with the separator the first element already uses, so
// registered Windows folders and slash-separated test paths both work.
func joinPath(base string, parts ...string) string {
	sep := "/"
	if strings.Contains(base, `\`) && !strings.Contains(base, "/") {
		sep = `\`
	}
	out := strings.TrimRight(base, `\/`)
	for _, p := range parts {
		out += sep + p
	}
	return out
}
