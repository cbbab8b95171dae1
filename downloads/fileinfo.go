package downloads

import (
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/craftista/godownload/models"
)

// FileInfo is the validated descriptor of a deliverable file. Every
// field is checked before it is handed out; absent or malformed project
// file metadata becomes a typed error, not a crash downstream.
type FileInfo struct {
	Path        string `json:"file_ref"`
	Name        string `json:"file_name"`
	Size        int64  `json:"file_size"`
	ContentType string `json:"mime_type"`
}

// FileResolver locates deliverable files under a single storage root.
type FileResolver struct {
	root string
}

// NewFileResolver returns a resolver rooted at the given directory.
func NewFileResolver(root string) *FileResolver {
	return &FileResolver{root: root}
}

// Resolve validates the project's declared file against the backing
// store and returns its descriptor. The stat'd size is authoritative
// over whatever the record declares.
func (f *FileResolver) Resolve(project *models.Project) (*FileInfo, error) {
	if !project.HasFile() {
		return nil, NotFoundError("Project has no deliverable file")
	}

	rel := filepath.Clean(project.FilePath)
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, NotFoundError("Project file path is outside the storage root")
	}

	full := filepath.Join(f.root, rel)
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return nil, NotFoundError("Project file is missing from the storage backend")
	}

	name := project.FileName
	if name == "" {
		name = filepath.Base(rel)
	}

	contentType := project.FileContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(name))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &FileInfo{
		Path:        full,
		Name:        name,
		Size:        info.Size(),
		ContentType: contentType,
	}, nil
}
