package consts

import (
	"os"
	"path/filepath"
)

const Name = "chanlist"

// Env var prefix for token overrides (CHANLIST_USER_TOKEN, CHANLIST_APP_TOKEN).
const EnvPrefix = "CHANLIST_"

var CacheDir string

func init() {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	CacheDir = filepath.Join(dir, Name)
	_ = os.MkdirAll(CacheDir, 0o700)
}
