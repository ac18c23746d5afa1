package discovery

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/pkg/errors"
	"github.com/plover-db/plover/unit"
)

var ErrUnitAlreadyExists = errors.New("unit file already exists")

const unitFileExtension = ".go"

// unitFileTemplate is the scaffold written by Create. The generated file
// registers the unit under its derived name on package load.
const unitFileTemplate = `package {{.Package}}

import (
	"context"

	"github.com/plover-db/plover/unit"
)

func init() {
	unit.Register("{{.Name}}", func() unit.Unit { return &{{.Name}}{} })
}

type {{.Name}} struct{}

func ({{.Name}}) Up(ctx context.Context, ex unit.Executor) error {
	return nil
}

func ({{.Name}}) Down(ctx context.Context, ex unit.Executor) error {
	return nil
}
`

// LocalDiscovery lists unit identifiers from files in a local folder.
type LocalDiscovery struct {
	folder string
}

var _ Discovery = (*LocalDiscovery)(nil)

func NewLocalDiscovery(folder string) *LocalDiscovery {
	return &LocalDiscovery{folder: folder}
}

// ListUnits returns the identifiers of every unit file in the folder,
// deduplicated and sorted ascending. A missing or unreadable folder is
// not an error and yields an empty result.
func (ld *LocalDiscovery) ListUnits(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := ioutil.ReadDir(ld.folder)
	if err != nil {
		return nil, nil
	}

	seen := make(map[string]struct{})
	var ids []string

	for i := range files {
		if files[i].IsDir() {
			continue
		}

		id := strings.TrimSuffix(files[i].Name(), filepath.Ext(files[i].Name()))
		if !IsUnitID(id) {
			continue
		}

		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids, nil
}

func (ld *LocalDiscovery) IsValid() bool {
	info, err := os.Stat(ld.folder)
	if os.IsNotExist(err) {
		return false
	}

	return info.IsDir()
}

func (ld *LocalDiscovery) AlreadyExists(id string) bool {
	info, err := os.Stat(filepath.Join(ld.folder, id+unitFileExtension))
	if os.IsNotExist(err) {
		return false
	}

	return !info.IsDir()
}

// Create scaffolds a unit file for the given identifier and returns its
// path. The file contains an empty implementation registered under the
// derived name.
func (ld *LocalDiscovery) Create(id string) (string, error) {
	if ld.AlreadyExists(id) {
		return "", errors.Wrapf(ErrUnitAlreadyExists, "[%s]", id)
	}

	name := unit.DeriveName(id)
	if name == "" {
		return "", &unit.ResolutionError{ID: id}
	}

	tmpl, err := template.New("unit").Parse(unitFileTemplate)
	if err != nil {
		return "", errors.Wrap(err, "could not parse unit file template")
	}

	var out bytes.Buffer
	in := struct {
		Package string
		Name    string
	}{
		Package: packageName(ld.folder),
		Name:    name,
	}

	if err := tmpl.Execute(&out, in); err != nil {
		return "", errors.Wrap(err, "could not render unit file template")
	}

	filename := filepath.Join(ld.folder, id+unitFileExtension)
	f, err := os.Create(filename)
	if err != nil {
		return "", errors.Wrapf(err, "could not create file [%s]", filename)
	}

	if _, err := f.Write(out.Bytes()); err != nil {
		_ = f.Close()
		return "", errors.Wrapf(err, "could not write file [%s]", filename)
	}

	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "could not close file [%s]", filename)
	}

	return filename, nil
}

func packageName(folder string) string {
	base := filepath.Base(filepath.Clean(folder))

	var b strings.Builder
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else if r >= 'A' && r <= 'Z' {
			b.WriteRune(r + ('a' - 'A'))
		}
	}

	if b.Len() == 0 {
		return "migrations"
	}

	return b.String()
}

// GenerateID builds a unit identifier from a point in time and a
// snake_case name, e.g. 2020_01_01_000000_create_users_table.
func GenerateID(t time.Time, name string) string {
	return fmt.Sprintf("%s_%s", t.Format("2006_01_02_150405"), strings.ToLower(strings.Replace(name, " ", "_", -1)))
}
