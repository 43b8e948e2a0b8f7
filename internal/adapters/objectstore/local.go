package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// LocalStore はローカルディスク上のディレクトリにオブジェクトを保存します。
type LocalStore struct {
	fs      afero.Fs
	baseURL string
}

// NewLocalStore は root 配下に保存する LocalStore を生成します。
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if root == "" {
		return nil, errors.New("objectstore: local root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("objectstore: create root %s: %w", root, err)
	}
	return NewLocalStoreFs(afero.NewBasePathFs(afero.NewOsFs(), root), baseURL), nil
}

// NewLocalStoreFs は任意の afero.Fs を保存先とする LocalStore を生成します。
func NewLocalStoreFs(fsys afero.Fs, baseURL string) *LocalStore {
	if baseURL == "" {
		baseURL = "/media/"
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStore{fs: fsys, baseURL: baseURL}
}

// Put は body を key に書き込みます。書き込みに失敗した場合は途中のファイルを削除します。
func (s *LocalStore) Put(ctx context.Context, key string, body io.Reader, _ int64, _ string) error {
	name, err := fsPath(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return fmt.Errorf("objectstore: create dir for %s: %w", name, err)
	}

	f, err := s.fs.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("objectstore: create %s: %w", name, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(name)
		return fmt.Errorf("objectstore: write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(name)
		return fmt.Errorf("objectstore: close %s: %w", name, err)
	}
	return nil
}

// Delete は key のオブジェクトを削除します。存在しない場合は何もしません。
func (s *LocalStore) Delete(_ context.Context, key string) error {
	name, err := fsPath(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("objectstore: delete %s: %w", name, err)
	}
	return nil
}

// fsPath はキーを Fs のルートからの絶対パスに変換します。
func fsPath(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return "/" + cleaned, nil
}

// URL は key を公開 URL に変換します。
func (s *LocalStore) URL(key string) string {
	return s.baseURL + key
}

// MountPath は公開 URL のパス部分を返します。ルーターはこのパスで Handler を公開します。
func (s *LocalStore) MountPath() string {
	u, err := url.Parse(s.baseURL)
	if err != nil || u.Path == "" {
		return "/media/"
	}
	return u.Path
}

// Handler は保存済みオブジェクトを配信する http.Handler を返します。パスは MountPath を除いた相対パスです。
func (s *LocalStore) Handler() http.Handler {
	return http.FileServer(afero.NewHttpFs(s.fs).Dir("/"))
}
