package utils

import (
	"os"
	"path/filepath"

	coreconfig "github.com/inkwell-cms/inkwell/core/config"
)

// GetMediaStoragePath returns the directory where uploaded media for a
// social post lives, creating it on first use.
func GetMediaStoragePath(postID string) string {
	path := filepath.Join(coreconfig.Global.Paths.Media, postID)
	_ = os.MkdirAll(path, 0755)
	return path
}

// GetThumbnailPath returns the thumbnail location for an uploaded media file.
func GetThumbnailPath(postID, filename string) string {
	base := filename[:len(filename)-len(filepath.Ext(filename))]
	return filepath.Join(GetMediaStoragePath(postID), base+"_thumb.jpg")
}

// DirSize walks a directory and sums the size of the regular files in it.
// Missing directories count as empty.
func DirSize(root string) (int64, error) {
	var total int64
	err := filepath.Walk(root, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	if os.IsNotExist(err) {
		return 0, nil
	}
	return total, err
}
