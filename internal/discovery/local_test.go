package discovery

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeUnitFiles(t *testing.T, folder string, names ...string) {
	t.Helper()

	for _, name := range names {
		err := ioutil.WriteFile(filepath.Join(folder, name), []byte("package migrations\n"), 0644)
		require.NoError(t, err)
	}
}

func Test_ListUnitsReturnsSortedIdentifiers(t *testing.T) {
	folder, err := ioutil.TempDir("", "plover-discovery")
	require.NoError(t, err)
	defer os.RemoveAll(folder)

	// written deliberately out of order
	makeUnitFiles(
		t,
		folder,
		"2020_01_02_000000_create_posts_table.go",
		"2020_01_01_000000_create_users_table.go",
		"2021_06_15_120000_add_index_to_posts.go",
	)

	ld := NewLocalDiscovery(folder)

	ids, err := ld.ListUnits(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{
		"2020_01_01_000000_create_users_table",
		"2020_01_02_000000_create_posts_table",
		"2021_06_15_120000_add_index_to_posts",
	}, ids)
}

func Test_ListUnitsSkipsFilesThatAreNotUnits(t *testing.T) {
	folder, err := ioutil.TempDir("", "plover-discovery")
	require.NoError(t, err)
	defer os.RemoveAll(folder)

	makeUnitFiles(
		t,
		folder,
		"2020_01_01_000000_create_users_table.go",
		"README.md",
		"helpers.go",
		"20200101_create_short_prefix.go",
	)

	require.NoError(t, os.Mkdir(filepath.Join(folder, "2020_02_02_000000_a_directory"), 0755))

	ld := NewLocalDiscovery(folder)

	ids, err := ld.ListUnits(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"2020_01_01_000000_create_users_table"}, ids)
}

func Test_ListUnitsDeduplicatesIdentifiers(t *testing.T) {
	folder, err := ioutil.TempDir("", "plover-discovery")
	require.NoError(t, err)
	defer os.RemoveAll(folder)

	makeUnitFiles(
		t,
		folder,
		"2020_01_01_000000_create_users_table.go",
		"2020_01_01_000000_create_users_table.sql",
	)

	ld := NewLocalDiscovery(folder)

	ids, err := ld.ListUnits(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"2020_01_01_000000_create_users_table"}, ids)
}

func Test_MissingFolderIsNotAnError(t *testing.T) {
	ld := NewLocalDiscovery("/definitely/not/a/folder")

	ids, err := ld.ListUnits(context.Background())

	require.NoError(t, err)
	assert.Len(t, ids, 0)
	assert.False(t, ld.IsValid())
}

func Test_CreateScaffoldsARegisteredUnitFile(t *testing.T) {
	folder, err := ioutil.TempDir("", "plover-discovery")
	require.NoError(t, err)
	defer os.RemoveAll(folder)

	ld := NewLocalDiscovery(folder)

	const id = "2020_01_01_000000_create_users_table"

	path, err := ld.Create(id)
	require.NoError(t, err)
	assert.True(t, ld.AlreadyExists(id))

	contents, err := ioutil.ReadFile(path)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(contents), `unit.Register("CreateUsersTable"`))
	assert.True(t, strings.Contains(string(contents), "type CreateUsersTable struct{}"))

	ids, err := ld.ListUnits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)

	_, err = ld.Create(id)
	assert.True(t, errors.Is(err, ErrUnitAlreadyExists))
}

func Test_GenerateID(t *testing.T) {
	at := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2020_01_01_000000_create_users_table", GenerateID(at, "create_users_table"))
	assert.Equal(t, "2020_01_01_000000_create_users_table", GenerateID(at, "Create Users Table"))
	assert.True(t, IsUnitID(GenerateID(time.Now(), "create_users_table")))
}
