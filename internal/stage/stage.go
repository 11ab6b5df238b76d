// Package stage implements the Local Stager: copying a user-picked local
// video file into its sandboxed project directory, then handing off to
// media.Canonicalize to enforce the pipeline's container contract.
package stage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperr "cursedclipper/internal/errors"
	"cursedclipper/internal/media"
	"cursedclipper/internal/validate"
)

const maxProjectNameLen = 72
const maxStemLen = 96

const defaultProjectName = "cursed-clipper-import"
const defaultStem = "video"

// Tools carries the resolved ffmpeg/ffprobe paths the stager needs to
// canonicalize whatever it copies in.
type Tools struct {
	FfmpegPath  string
	FfprobePath string
}

// StageLocalFile copies sourcePath into <projectsRoot>/<sanitized project
// name>/, resolving filename collisions, then canonicalizes the result
// per §4.E. projectName may be empty, in which case defaultProjectName is
// used.
func StageLocalFile(ctx context.Context, tools Tools, projectsRoot, sourcePath, projectName string) (string, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return "", apperr.Wrap("stage.StageLocalFile", err)
	}
	if info.IsDir() {
		return "", apperr.NewWithMessage("stage.StageLocalFile", apperr.ErrSandboxViolation, "not a file")
	}

	ext, err := validate.VideoExtension(filepath.Ext(sourcePath))
	if err != nil {
		return "", err
	}

	sanitizedProject := validate.SlugName(projectName, maxProjectNameLen, defaultProjectName)
	stem := validate.SlugName(strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath)), maxStemLen, defaultStem)

	targetDir := filepath.Join(projectsRoot, sanitizedProject)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", apperr.Wrap("stage.StageLocalFile", err)
	}

	destPath, err := resolveCollision(targetDir, stem, ext)
	if err != nil {
		return "", err
	}

	if err := copyFile(sourcePath, destPath); err != nil {
		return "", apperr.Wrap("stage.StageLocalFile", err)
	}

	final, err := media.Canonicalize(ctx, tools.FfmpegPath, tools.FfprobePath, destPath, true)
	if err != nil {
		return "", err
	}
	return final, nil
}

// resolveCollision returns the first path of the form
// <dir>/<stem>.<ext>, <dir>/<stem>-2.<ext>, <dir>/<stem>-3.<ext>, ... that
// doesn't already exist.
func resolveCollision(dir, stem, ext string) (string, error) {
	candidate := filepath.Join(dir, stem+"."+ext)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}

	for n := 2; n < 10000; n++ {
		candidate = filepath.Join(dir, stem+"-"+strconv.Itoa(n)+"."+ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", apperr.NewWithMessage("stage.resolveCollision", apperr.ErrCapacityExceeded, "could not find a free filename")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
