package downloads

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftista/godownload/models"
)

func TestFileResolver(t *testing.T) {
	root, err := ioutil.TempDir("", "fileinfo-test")
	require.NoError(t, err)

	err = ioutil.WriteFile(filepath.Join(root, "asset.pdf"), []byte("pdf bytes"), 0644)
	require.NoError(t, err)

	resolver := NewFileResolver(root)

	t.Run("Resolves", func(t *testing.T) {
		info, err := resolver.Resolve(&models.Project{
			FilePath:        "asset.pdf",
			FileName:        "My Asset.pdf",
			FileContentType: "application/pdf",
		})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "asset.pdf"), info.Path)
		assert.Equal(t, "My Asset.pdf", info.Name)
		assert.EqualValues(t, 9, info.Size)
		assert.Equal(t, "application/pdf", info.ContentType)
	})

	t.Run("DefaultsNameAndType", func(t *testing.T) {
		info, err := resolver.Resolve(&models.Project{FilePath: "asset.pdf"})
		require.NoError(t, err)
		assert.Equal(t, "asset.pdf", info.Name)
		assert.Equal(t, "application/pdf", info.ContentType)
	})

	t.Run("NoFileDeclared", func(t *testing.T) {
		_, err := resolver.Resolve(&models.Project{})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("MissingOnDisk", func(t *testing.T) {
		_, err := resolver.Resolve(&models.Project{FilePath: "gone.pdf"})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindNotFound))
	})

	t.Run("RejectsTraversal", func(t *testing.T) {
		for _, path := range []string{"../outside.pdf", "/etc/passwd", "a/../../b", ".."} {
			_, err := resolver.Resolve(&models.Project{FilePath: path})
			assert.Error(t, err, "path %q must be rejected", path)
		}
	})

	t.Run("AllowsDotPrefixedNames", func(t *testing.T) {
		err := ioutil.WriteFile(filepath.Join(root, "..release.zip"), []byte("zip bytes"), 0644)
		require.NoError(t, err)

		info, err := resolver.Resolve(&models.Project{FilePath: "..release.zip"})
		require.NoError(t, err)
		assert.Equal(t, "..release.zip", info.Name)
	})
}
