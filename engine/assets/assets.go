package assets

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/phm/engine/assets/loaders"
	"github.com/spaghettifunk/phm/engine/core"
	"golang.org/x/sync/errgroup"
)

// ShaderDir is where compiled shaders live, relative to the asset root.
const ShaderDir = "shaders"

type AssetInfo struct {
	Path       string
	Type       AssetType
	LastLoaded time.Time
	// code is nil until the asset is first loaded or after it changed on disk.
	code []uint32
}

/**
 * @brief Indexes every asset under a root directory, caches loaded shaders
 * and watches the tree so edited shaders can be picked up between frames.
 */
type AssetManager struct {
	root    string
	assets  map[string]*AssetInfo
	loaders map[AssetType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	running  bool
	changed  chan string
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}

	return &AssetManager{
		assets:   make(map[string]*AssetInfo),
		loaders:  make(map[AssetType]Loader),
		fsnotify: fsWatch,
		changed:  make(chan string, 16),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Initialize indexes assetsDir and starts watching it.
func (am *AssetManager) Initialize(assetsDir string) error {
	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve asset directory %s", assetsDir)
	}
	am.root = root
	am.registerLoader(AssetTypeShader, &loaders.ShaderLoader{})

	if err := am.addRecursive(root); err != nil {
		return errors.Wrapf(err, "failed to watch asset directory %s", root)
	}
	am.running = true
	go am.start()
	return nil
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset watcher already closed")
	}
	return am.watchRecursive(name, false)
}

func (am *AssetManager) registerLoader(assetType AssetType, loader Loader) {
	am.loaders[assetType] = loader
}

// Shader returns the SPIR-V for name, a file under ShaderDir such as
// "simple_shader.vert.spv". Loaded code is cached until the file changes.
func (am *AssetManager) Shader(name string) ([]uint32, error) {
	key := filepath.ToSlash(filepath.Join(ShaderDir, name))

	am.mutex.RLock()
	asset, exists := am.assets[key]
	var code []uint32
	if exists {
		code = asset.code
	}
	am.mutex.RUnlock()
	if !exists {
		return nil, errors.Wrapf(core.ErrShaderNotFound, "%s", key)
	}
	if code != nil {
		return code, nil
	}

	loader, ok := am.loaders[asset.Type]
	if !ok {
		return nil, errors.Newf("no loader registered for asset type %d", asset.Type)
	}
	code, err := loader.Load(filepath.Join(am.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	if current, ok := am.assets[key]; ok {
		current.code = code
		current.LastLoaded = time.Now()
	}
	am.mutex.Unlock()
	return code, nil
}

// Preload loads every named shader concurrently and returns the first error.
func (am *AssetManager) Preload(ctx context.Context, names ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := am.Shader(name)
			return err
		})
	}
	return g.Wait()
}

// Changed delivers the relative path of every shader that was written on
// disk since it was last loaded. Drain it between frames.
func (am *AssetManager) Changed() <-chan string {
	return am.changed
}

// Close stops the watcher. It is safe to call more than once.
func (am *AssetManager) Close() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	if am.running {
		<-am.stopped
		return nil
	}
	return am.fsnotify.Close()
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, false); err != nil {
						core.LogWarn("failed to watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds every directory under path to the watch list and
// indexes the files it finds.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.indexFile(walkPath)
		return nil
	})
}

func (am *AssetManager) relative(path string) (string, bool) {
	rel, err := filepath.Rel(am.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// indexFile records path and drops any cached code for it.
func (am *AssetManager) indexFile(path string) (string, bool) {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return "", false
	}
	rel, ok := am.relative(path)
	if !ok {
		return "", false
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[rel] = &AssetInfo{Path: rel, Type: assetType}
	return rel, true
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	rel, ok := am.indexFile(path)
	if !ok {
		return
	}
	core.LogDebug("asset changed: %s", rel)
	select {
	case am.changed <- rel:
	default:
		// A reload is already pending; one rebuild picks up every change.
	}
}

func (am *AssetManager) removeAsset(path string) {
	rel, ok := am.relative(path)
	if !ok {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, rel)
}
