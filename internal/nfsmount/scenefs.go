// Package nfsmount serves a translated scene over NFS so it can be mounted
// and browsed with ordinary file tools. It adapts a scene.Store to
// billy.Filesystem for use with willscott/go-nfs.
//
// Layout: every prim is a directory named after the prim; each attribute
// and relationship is a read-only file in its prim's directory holding the
// property's layer text. The root additionally carries _layer.usda (the
// whole layer) and _scene.json (the JSON document).
package nfsmount

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"

	"github.com/agentic-research/mjcusd/internal/scene"
)

var errReadOnly = errors.New("read-only filesystem")

// Names of the virtual files at the mount root.
const (
	LayerFile = "_layer.usda"
	JSONFile  = "_scene.json"
)

// SceneFS is a read-only billy.Filesystem over a finished scene document.
type SceneFS struct {
	store     *scene.Store
	virtual   map[string][]byte
	mountTime time.Time

	mu    sync.Mutex
	props map[string][]byte
}

// NewSceneFS renders the root files of s and returns the filesystem. s must
// not be modified afterwards.
func NewSceneFS(s *scene.Store) (*SceneFS, error) {
	layer, err := scene.USDA(s)
	if err != nil {
		return nil, fmt.Errorf("render layer: %w", err)
	}
	return &SceneFS{
		store: s,
		virtual: map[string][]byte{
			LayerFile: []byte(layer),
			JSONFile:  []byte(scene.ToJSON(s) + "\n"),
		},
		mountTime: time.Now(),
		props:     make(map[string][]byte),
	}, nil
}

// entry is a resolved filesystem path: a prim directory or a file.
type entry struct {
	name string
	dir  bool
	data []byte
}

// resolve maps a clean absolute path onto the document.
func (fs *SceneFS) resolve(name string) (*entry, bool) {
	if name == "/" {
		return &entry{name: "/", dir: true}, true
	}
	dir, base := path.Split(name)
	if dir == "/" {
		if data, ok := fs.virtual[base]; ok {
			return &entry{name: base, data: data}, true
		}
	}
	if fs.store.HasPrim(scene.Path(name)) {
		return &entry{name: base, dir: true}, true
	}
	prim, err := fs.store.GetPrim(scene.Path(path.Clean(dir)))
	if err != nil {
		return nil, false
	}
	data, ok := fs.property(prim, base)
	if !ok {
		return nil, false
	}
	return &entry{name: base, data: data}, true
}

// property renders a property file once and caches it.
func (fs *SceneFS) property(p *scene.Prim, name string) ([]byte, bool) {
	key := p.Path.AppendProperty(name)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if data, ok := fs.props[key]; ok {
		return data, true
	}
	text, ok := scene.PropertyUSDA(p, name)
	if !ok {
		return nil, false
	}
	fs.props[key] = []byte(text)
	return fs.props[key], true
}

func (fs *SceneFS) info(e *entry) os.FileInfo {
	mode := os.FileMode(0o444)
	if e.dir {
		mode = os.ModeDir | 0o555
	}
	return &staticFileInfo{
		name:    e.name,
		size:    int64(len(e.data)),
		mode:    mode,
		modTime: fs.mountTime,
	}
}

// --- billy.Basic ---

func (fs *SceneFS) Create(filename string) (billy.File, error) {
	return nil, errReadOnly
}

func (fs *SceneFS) Open(filename string) (billy.File, error) {
	return fs.OpenFile(filename, os.O_RDONLY, 0)
}

func (fs *SceneFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	filename = cleanPath(filename)
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, &os.PathError{Op: "open", Path: filename, Err: errReadOnly}
	}
	e, ok := fs.resolve(filename)
	if !ok {
		return nil, &os.PathError{Op: "open", Path: filename, Err: os.ErrNotExist}
	}
	if e.dir {
		return nil, &os.PathError{Op: "open", Path: filename, Err: errors.New("is a directory")}
	}
	return newContentFile(filename, e.data), nil
}

func (fs *SceneFS) Stat(filename string) (os.FileInfo, error) {
	return fs.Lstat(filename)
}

func (fs *SceneFS) Rename(oldpath, newpath string) error { return errReadOnly }

func (fs *SceneFS) Remove(filename string) error { return errReadOnly }

func (fs *SceneFS) Join(elem ...string) string { return path.Join(elem...) }

// --- billy.TempFile ---

func (fs *SceneFS) TempFile(dir, prefix string) (billy.File, error) {
	return nil, billy.ErrNotSupported
}

// --- billy.Dir ---

// ReadDir lists child prims first, then attributes, then relationships, in
// authoring order.
func (fs *SceneFS) ReadDir(name string) ([]os.FileInfo, error) {
	name = cleanPath(name)
	if name == "/" {
		infos := []os.FileInfo{
			fs.info(&entry{name: LayerFile, data: fs.virtual[LayerFile]}),
			fs.info(&entry{name: JSONFile, data: fs.virtual[JSONFile]}),
		}
		for _, root := range fs.store.Roots() {
			infos = append(infos, fs.info(&entry{name: root.Name(), dir: true}))
		}
		return infos, nil
	}

	prim, err := fs.store.GetPrim(scene.Path(name))
	if err != nil {
		if _, ok := fs.resolve(name); ok {
			return nil, &os.PathError{Op: "readdir", Path: name, Err: errors.New("not a directory")}
		}
		return nil, &os.PathError{Op: "readdir", Path: name, Err: os.ErrNotExist}
	}

	infos := make([]os.FileInfo, 0, len(prim.Children())+len(prim.Attributes())+len(prim.Relationships()))
	for _, child := range prim.Children() {
		infos = append(infos, fs.info(&entry{name: child.Name(), dir: true}))
	}
	for _, a := range prim.Attributes() {
		data, _ := fs.property(prim, a.Name)
		infos = append(infos, fs.info(&entry{name: a.Name, data: data}))
	}
	for _, r := range prim.Relationships() {
		data, _ := fs.property(prim, r.Name)
		infos = append(infos, fs.info(&entry{name: r.Name, data: data}))
	}
	return infos, nil
}

func (fs *SceneFS) MkdirAll(filename string, perm os.FileMode) error { return errReadOnly }

// --- billy.Symlink ---

func (fs *SceneFS) Lstat(filename string) (os.FileInfo, error) {
	filename = cleanPath(filename)
	e, ok := fs.resolve(filename)
	if !ok {
		return nil, &os.PathError{Op: "lstat", Path: filename, Err: os.ErrNotExist}
	}
	return fs.info(e), nil
}

func (fs *SceneFS) Symlink(target, link string) error { return billy.ErrNotSupported }

func (fs *SceneFS) Readlink(link string) (string, error) { return "", billy.ErrNotSupported }

// --- billy.Chroot ---

func (fs *SceneFS) Chroot(p string) (billy.Filesystem, error) {
	return chroot.New(fs, p), nil
}

func (fs *SceneFS) Root() string { return "/" }

// --- billy.Capable ---

func (fs *SceneFS) Capabilities() billy.Capability {
	return billy.ReadCapability | billy.SeekCapability
}

// cleanPath normalizes a billy path to a clean absolute path.
func cleanPath(p string) string {
	return path.Clean("/" + p)
}

// staticFileInfo implements os.FileInfo with static values.
type staticFileInfo struct {
	name    string
	size    int64
	mode    os.FileMode
	modTime time.Time
}

func (fi *staticFileInfo) Name() string       { return fi.name }
func (fi *staticFileInfo) Size() int64        { return fi.size }
func (fi *staticFileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *staticFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *staticFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *staticFileInfo) Sys() any           { return nil }

var (
	_ billy.Filesystem = (*SceneFS)(nil)
	_ billy.Capable    = (*SceneFS)(nil)
)
