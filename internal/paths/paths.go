package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	appDirName     = "jrtbuild"
	downloadsDir   = "downloads"
	jmodsDirName   = "jmods"
	libDirName     = "lib"
	binDirName     = "bin"
	srcArchiveName = "src.zip"
	tempSuffix     = ".tmp"
)

func homeDir() (string, error) {
	if runtime.GOOS == "windows" {
		home := os.Getenv("USERPROFILE")
		if home != "" {
			return home, nil
		}
	}
	return os.UserHomeDir()
}

// CacheDir is the per-user cache root, falling back to ~/.jrtbuild when the
// OS has no cache directory convention.
func CacheDir() (string, error) {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, appDirName), nil
	}
	home, err := homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "."+appDirName), nil
}

func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName), nil
}

func DownloadsDir(cacheDir string) string {
	return filepath.Join(cacheDir, downloadsDir)
}

// JDKHome resolves the JDK home inside an extracted archive root. macOS
// bundles keep the JDK under Contents/Home.
func JDKHome(root string) string {
	contentsHome := filepath.Join(root, "Contents", "Home")
	if info, err := os.Stat(filepath.Join(contentsHome, binDirName)); err == nil && info.IsDir() {
		return contentsHome
	}
	return root
}

func LinkerPath(jdkHome, linkerName string) string {
	return filepath.Join(jdkHome, binDirName, linkerName)
}

func JmodsDir(jdkHome string) string {
	return filepath.Join(jdkHome, jmodsDirName)
}

func LibDir(imageDir string) string {
	return filepath.Join(imageDir, libDirName)
}

// SrcArchivePath is the location of the bundled source archive in a JDK.
func SrcArchivePath(jdkHome string) string {
	return filepath.Join(LibDir(jdkHome), srcArchiveName)
}

// TempRoot is the fixed scratch directory for label next to outputDir,
// e.g. /out/myimage-jdk.tmp.
func TempRoot(outputDir, label string) string {
	return filepath.Join(filepath.Dir(outputDir), filepath.Base(outputDir)+"-"+label+tempSuffix)
}

// LockPath is the advisory lock guarding builds that target outputDir.
func LockPath(outputDir string) string {
	return filepath.Join(filepath.Dir(outputDir), "."+filepath.Base(outputDir)+".lock")
}
